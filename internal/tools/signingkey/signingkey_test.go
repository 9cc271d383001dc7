package signingkey

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"github.com/pvaldez/taskstack/internal/auth/token"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("signingkey", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.SeedOnly {
		t.Fatal("expected full key by default")
	}
}

func TestRunEmitsUsableKey(t *testing.T) {
	var out bytes.Buffer
	if err := Run(Config{}, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	line := strings.TrimSpace(out.String())
	encoded, ok := strings.CutPrefix(line, "TASKSTACK_SIGNING_KEY=")
	if !ok {
		t.Fatalf("output = %q, want env assignment", line)
	}
	if _, err := token.ParseSigningKey(encoded); err != nil {
		t.Fatalf("emitted key should parse: %v", err)
	}
}

func TestRunSeedOnlyEmitsUsableKey(t *testing.T) {
	var out bytes.Buffer
	if err := Run(Config{SeedOnly: true}, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	encoded, ok := strings.CutPrefix(strings.TrimSpace(out.String()), "TASKSTACK_SIGNING_KEY=")
	if !ok {
		t.Fatalf("output = %q, want env assignment", out.String())
	}
	if _, err := token.ParseSigningKey(encoded); err != nil {
		t.Fatalf("emitted seed should parse: %v", err)
	}
}

func TestRunRequiresOutput(t *testing.T) {
	if err := Run(Config{}, nil, nil); err == nil {
		t.Fatal("expected error for nil output")
	}
}
