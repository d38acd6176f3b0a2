// Package ledger parses ledger server configuration and runs the service.
package ledger

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"

	entrypoint "github.com/louisbranch/rbac-ledger/internal/platform/cmd"
	"github.com/louisbranch/rbac-ledger/internal/platform/discovery"
	"github.com/louisbranch/rbac-ledger/internal/platform/logging"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/app"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/engine"
)

// Config holds ledger server configuration.
type Config struct {
	Port           int    `env:"PORT" envDefault:"8095"`
	Addr           string `env:"ADDR"`
	DBPath         string `env:"DB_PATH" envDefault:"data/ledger.db"`
	Admin          string `env:"ADMIN"`
	Owner          string `env:"OWNER"`
	TokenPublicKey string `env:"TOKEN_PUBLIC_KEY"`
	TokenIssuer    string `env:"TOKEN_ISSUER" envDefault:"rbac-ledger"`
	TokenAudience  string `env:"TOKEN_AUDIENCE" envDefault:"rbac-ledger"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr    string `env:"METRICS_ADDR"`
	StrictBalances bool   `env:"STRICT_BALANCES"`
	SnapshotEvery  int    `env:"SNAPSHOT_EVERY" envDefault:"100"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{MetricsAddr: discovery.DefaultMetricsAddr()}
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The ledger gRPC port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The ledger gRPC listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database")
	fs.StringVar(&cfg.Admin, "admin", cfg.Admin, "Role admin seeded into an empty database")
	fs.StringVar(&cfg.Owner, "owner", cfg.Owner, "Owner seeded into an empty database")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus listen address; empty disables metrics")
	fs.BoolVar(&cfg.StrictBalances, "strict-balances", cfg.StrictBalances, "Reject debits that would make a balance negative")
	fs.IntVar(&cfg.SnapshotEvery, "snapshot-every", cfg.SnapshotEvery, "Commands between state snapshots")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = engine.DefaultSnapshotEvery
	}
	return cfg, nil
}

// ListenAddr returns the gRPC listen address.
func (c Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	if c.Port <= 0 {
		return fmt.Sprintf(":%d", discovery.GRPCPort)
	}
	return fmt.Sprintf(":%d", c.Port)
}

// Run starts the ledger service and blocks until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	options := entrypoint.RunOptions{Logger: logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceLedger, options, func(ctx context.Context) error {
		logger.Info("starting ledger",
			zap.String("addr", cfg.ListenAddr()),
			zap.String("db_path", cfg.DBPath),
			zap.Bool("strict_balances", cfg.StrictBalances),
		)
		return app.Run(ctx, app.Config{
			Addr:           cfg.ListenAddr(),
			MetricsAddr:    cfg.MetricsAddr,
			DBPath:         cfg.DBPath,
			Admin:          cfg.Admin,
			Owner:          cfg.Owner,
			TokenPublicKey: cfg.TokenPublicKey,
			TokenIssuer:    cfg.TokenIssuer,
			TokenAudience:  cfg.TokenAudience,
			StrictBalances: cfg.StrictBalances,
			SnapshotEvery:  cfg.SnapshotEvery,
			Logger:         logger,
		})
	})
}
