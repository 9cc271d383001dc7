// Package signingkey generates Ed25519 token signing keys.
package signingkey

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
)

// Config holds configuration for signing key generation.
type Config struct {
	SeedOnly bool
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{}
	fs.BoolVar(&cfg.SeedOnly, "seed", cfg.SeedOnly, "emit only the 32-byte seed instead of the full private key")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates a keypair and writes the encoded private key to out.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}

	_, priv, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate keypair: %w", err)
	}

	material := []byte(priv)
	if cfg.SeedOnly {
		material = priv.Seed()
	}
	_, err = fmt.Fprintf(out, "TASKSTACK_SIGNING_KEY=%s\n", base64.StdEncoding.EncodeToString(material))
	return err
}
