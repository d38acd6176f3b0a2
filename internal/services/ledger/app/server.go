package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/rbac-ledger/internal/platform/authtoken"
	"github.com/louisbranch/rbac-ledger/internal/platform/logging"
	"github.com/louisbranch/rbac-ledger/internal/platform/telemetry/metrics"
	"github.com/louisbranch/rbac-ledger/internal/platform/timeouts"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/api/grpc/interceptors"
	ledgergrpc "github.com/louisbranch/rbac-ledger/internal/services/ledger/api/grpc/ledger"
	grpcmeta "github.com/louisbranch/rbac-ledger/internal/services/ledger/api/grpc/metadata"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/engine"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/storage/sqlite"
)

// Config describes one ledger server process.
type Config struct {
	// Addr is the gRPC listen address.
	Addr string
	// MetricsAddr serves /metrics when set.
	MetricsAddr string
	DBPath      string
	// Admin and Owner seed an empty database; later starts keep the stored
	// values.
	Admin string
	Owner string
	// TokenPublicKey is the base64 Ed25519 key that verifies bearer tokens.
	// Without it no caller can be attested and every command fails
	// authentication.
	TokenPublicKey string
	TokenIssuer    string
	TokenAudience  string
	StrictBalances bool
	SnapshotEvery  int
	Logger         *zap.Logger
}

// Server hosts the ledger gRPC service.
type Server struct {
	listener      net.Listener
	grpcServer    *grpc.Server
	health        *health.Server
	metricsServer *http.Server
	store         *sqlite.Store
	logger        *zap.Logger
}

// New opens storage, restores the engine and prepares the listeners.
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := logging.OrNop(cfg.Logger)

	verifier, err := newVerifier(cfg)
	if err != nil {
		return nil, err
	}
	store, err := openStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := engine.Bootstrap(ctx, store, store, cfg.Admin, cfg.Owner); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("bootstrap authorities: %w", err)
	}
	handler, err := engine.New(ctx, engine.Config{
		Roles:         store,
		Owners:        store,
		Journal:       store,
		Snapshots:     store,
		SnapshotEvery: cfg.SnapshotEvery,
		Sink:          engine.LogSink{Logger: logger.Named("events")},
		Rules:         ledger.Rules{StrictBalances: cfg.StrictBalances},
		Logger:        logger.Named("engine"),
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	var tokenVerifier interceptors.TokenVerifier
	if verifier != nil {
		tokenVerifier = verifier
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcmeta.UnaryServerInterceptor(nil),
			metrics.UnaryServerInterceptor(),
			interceptors.AuthUnaryInterceptor(tokenVerifier),
			interceptors.LoggingUnaryInterceptor(logger.Named("grpc")),
		),
	)
	ledgergrpc.RegisterLedgerServer(grpcServer, ledgergrpc.NewService(handler, store))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ledgergrpc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	var metricsServer *http.Server
	if addr := strings.TrimSpace(cfg.MetricsAddr); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: timeouts.ReadHeader}
	}

	if verifier == nil {
		logger.Warn("no token public key configured; commands cannot be authenticated")
	}
	return &Server{
		listener:      listener,
		grpcServer:    grpcServer,
		health:        healthServer,
		metricsServer: metricsServer,
		store:         store,
		logger:        logger,
	}, nil
}

// Addr returns the bound gRPC address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve runs until ctx is canceled or the gRPC server fails, then shuts
// down gracefully and closes storage.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close store", zap.Error(err))
		}
	}()

	if s.metricsServer != nil {
		go func() {
			s.logger.Info("metrics listening", zap.String("addr", s.metricsServer.Addr))
			if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("metrics server", zap.Error(err))
			}
		}()
	}

	s.logger.Info("ledger server listening", zap.String("addr", s.listener.Addr().String()))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}

	var err error
	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err = handleErr(<-serveErr)
	case serveFailure := <-serveErr:
		err = handleErr(serveFailure)
	}
	s.shutdownMetrics()
	return err
}

func (s *Server) shutdownMetrics() {
	if s.metricsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.metricsServer.Shutdown(ctx); err != nil {
		s.logger.Warn("shutdown metrics server", zap.Error(err))
	}
}

// Run creates a server from cfg and serves until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

func newVerifier(cfg Config) (*authtoken.Verifier, error) {
	if strings.TrimSpace(cfg.TokenPublicKey) == "" {
		return nil, nil
	}
	key, err := authtoken.DecodePublicKey(cfg.TokenPublicKey)
	if err != nil {
		return nil, err
	}
	verifier, err := authtoken.NewVerifier(authtoken.VerifierConfig{
		Issuer:   cfg.TokenIssuer,
		Audience: cfg.TokenAudience,
		Key:      key,
	})
	if err != nil {
		return nil, fmt.Errorf("configure token verifier: %w", err)
	}
	return verifier, nil
}

func openStore(path string) (*sqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "ledger.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}
