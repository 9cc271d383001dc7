package config

import "testing"

type testEnvConfig struct {
	Addr    string `env:"TASKSTACK_TEST_ADDR" envDefault:"localhost:8080"`
	Retries int    `env:"TASKSTACK_TEST_RETRIES" envDefault:"3"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg testEnvConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != "localhost:8080" {
		t.Fatalf("Addr = %q, want default", cfg.Addr)
	}
	if cfg.Retries != 3 {
		t.Fatalf("Retries = %d, want 3", cfg.Retries)
	}
}

func TestParseEnvOverride(t *testing.T) {
	t.Setenv("TASKSTACK_TEST_ADDR", "0.0.0.0:9999")
	t.Setenv("TASKSTACK_TEST_RETRIES", "7")

	var cfg testEnvConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != "0.0.0.0:9999" {
		t.Fatalf("Addr = %q, want override", cfg.Addr)
	}
	if cfg.Retries != 7 {
		t.Fatalf("Retries = %d, want 7", cfg.Retries)
	}
}

func TestParseEnvInvalidValue(t *testing.T) {
	t.Setenv("TASKSTACK_TEST_RETRIES", "not-a-number")

	var cfg testEnvConfig
	if err := ParseEnv(&cfg); err == nil {
		t.Fatal("expected error for invalid integer value")
	}
}
