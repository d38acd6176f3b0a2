// Package token issues ledger bearer tokens and generates signing keys.
package token

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/louisbranch/rbac-ledger/internal/platform/authtoken"
	entrypoint "github.com/louisbranch/rbac-ledger/internal/platform/cmd"
)

// Config holds token command configuration.
type Config struct {
	PrivateKey string        `env:"TOKEN_PRIVATE_KEY"`
	Issuer     string        `env:"TOKEN_ISSUER" envDefault:"rbac-ledger"`
	Audience   string        `env:"TOKEN_AUDIENCE" envDefault:"rbac-ledger"`
	TTL        time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	Subject    string
	Keygen     bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Subject, "subject", "", "Account the token attests")
	fs.BoolVar(&cfg.Keygen, "keygen", false, "Generate a new signing key pair instead of a token")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "Token lifetime")
	fs.StringVar(&cfg.Issuer, "issuer", cfg.Issuer, "Token issuer")
	fs.StringVar(&cfg.Audience, "audience", cfg.Audience, "Token audience")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run writes either a key pair as shell exports or a signed token.
func Run(out io.Writer, cfg Config) error {
	if out == nil {
		return errors.New("output is required")
	}
	if cfg.Keygen {
		publicKey, privateKey, err := authtoken.GenerateKey()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "export RBAC_LEDGER_TOKEN_PRIVATE_KEY=%s\n", privateKey); err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "export RBAC_LEDGER_TOKEN_PUBLIC_KEY=%s\n", publicKey)
		return err
	}

	if cfg.PrivateKey == "" {
		return errors.New("RBAC_LEDGER_TOKEN_PRIVATE_KEY is required")
	}
	key, err := authtoken.DecodePrivateKey(cfg.PrivateKey)
	if err != nil {
		return err
	}
	signed, err := authtoken.Issue(cfg.Subject, authtoken.IssuerConfig{
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
		Key:      key,
		TTL:      cfg.TTL,
	})
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	_, err = fmt.Fprintln(out, signed)
	return err
}
