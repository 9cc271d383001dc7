// Package server parses configuration and runs the API server.
package server

import (
	"context"
	"flag"
	"time"

	"github.com/pvaldez/taskstack/internal/app"
	"github.com/pvaldez/taskstack/internal/platform/config"
	"github.com/pvaldez/taskstack/internal/platform/otel"
)

// Config holds server command configuration.
type Config struct {
	Addr            string        `env:"TASKSTACK_ADDR" envDefault:"localhost:8080"`
	DBPath          string        `env:"TASKSTACK_DB_PATH" envDefault:"taskstack.db"`
	TokenIssuer     string        `env:"TASKSTACK_TOKEN_ISSUER" envDefault:"taskstack"`
	TokenAudience   string        `env:"TASKSTACK_TOKEN_AUDIENCE" envDefault:"taskstack-api"`
	SigningKey      string        `env:"TASKSTACK_SIGNING_KEY"`
	AccessTTL       time.Duration `env:"TASKSTACK_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL      time.Duration `env:"TASKSTACK_REFRESH_TTL" envDefault:"168h"`
	LoginPerMinute  float64       `env:"TASKSTACK_LOGIN_PER_MINUTE" envDefault:"10"`
	LoginBurst      int           `env:"TASKSTACK_LOGIN_BURST" envDefault:"10"`
	CleanupInterval time.Duration `env:"TASKSTACK_CLEANUP_INTERVAL" envDefault:"5m"`
}

// ParseConfig loads configuration from the environment, then lets flags
// override it.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.DurationVar(&cfg.AccessTTL, "access-ttl", cfg.AccessTTL, "access token lifetime")
	fs.DurationVar(&cfg.RefreshTTL, "refresh-ttl", cfg.RefreshTTL, "refresh token lifetime")
	fs.DurationVar(&cfg.CleanupInterval, "cleanup-interval", cfg.CleanupInterval, "expired session purge interval")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the API server and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "taskstack")
	if err != nil {
		return err
	}
	defer func() {
		_ = shutdown(context.Background())
	}()

	server, err := app.NewServer(app.Options{
		Addr:            cfg.Addr,
		DBPath:          cfg.DBPath,
		TokenIssuer:     cfg.TokenIssuer,
		TokenAudience:   cfg.TokenAudience,
		SigningKey:      cfg.SigningKey,
		AccessTTL:       cfg.AccessTTL,
		RefreshTTL:      cfg.RefreshTTL,
		LoginPerMinute:  cfg.LoginPerMinute,
		LoginBurst:      cfg.LoginBurst,
		CleanupInterval: cfg.CleanupInterval,
	})
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}
