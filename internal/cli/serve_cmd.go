package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitease/internal/api"
	"github.com/mmynk/splitease/internal/auth"
	"github.com/mmynk/splitease/internal/config"
	"github.com/mmynk/splitease/internal/events"
	"github.com/mmynk/splitease/internal/metrics"
	"github.com/mmynk/splitease/internal/middleware"
	"github.com/mmynk/splitease/internal/rpc"
	"github.com/mmynk/splitease/internal/service"
	"github.com/mmynk/splitease/internal/storage/sqlite"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and Connect server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// app holds everything serve wires together, so tests can build it without
// listening on a port.
type app struct {
	handler   http.Handler
	store     *sqlite.SQLiteStore
	publisher events.Publisher
}

func newApp(cfg *config.Config) (*app, error) {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	slog.Info("Storage initialized", "database", cfg.DBPath)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			store.Close()
			return nil, err
		}
		publisher = amqpPublisher
		slog.Info("Publishing ledger events", "exchange", cfg.AMQPExchange)
	}

	m := metrics.New()
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)

	ledger := service.NewLedgerService(store, publisher, m)
	debts := service.NewDebtService(store, cfg.DebtCacheSize, m)

	rpcPath, rpcHandler := rpc.NewLedgerServiceHandler(rpc.NewLedgerServer(ledger, debts), jwtManager)

	handler := api.NewRouter(api.Dependencies{
		Store:   store,
		Ledger:  ledger,
		Debts:   debts,
		Groups:  service.NewGroupService(store, publisher, m),
		Friends: service.NewFriendService(store),
		Auth:    service.NewAuthService(authenticator, jwtManager, store, slog.Default()),
		JWT:     jwtManager,
		Metrics: m,
		RateLimiter: middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		}),
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RPCPath:        rpcPath,
		RPC:            rpcHandler,
	})

	return &app{handler: handler, store: store, publisher: publisher}, nil
}

func (a *app) Close() error {
	return errors.Join(a.publisher.Close(), a.store.Close())
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr: cfg.Addr(),
		// h2c lets Connect clients speak HTTP/2 without TLS
		Handler:           h2c.NewHandler(a.handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		return err
	}
	slog.Info("Server stopped")
	return nil
}
