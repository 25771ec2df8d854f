package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/redis/go-redis/v9"
	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/nyashahama/ops-diagnostic-backend/internal/ai"
	"github.com/nyashahama/ops-diagnostic-backend/internal/api"
	"github.com/nyashahama/ops-diagnostic-backend/internal/catalog"
	"github.com/nyashahama/ops-diagnostic-backend/internal/config"
	"github.com/nyashahama/ops-diagnostic-backend/internal/db"
	"github.com/nyashahama/ops-diagnostic-backend/internal/email"
	"github.com/nyashahama/ops-diagnostic-backend/internal/lock"
	"github.com/nyashahama/ops-diagnostic-backend/internal/store"
	stripeinternal "github.com/nyashahama/ops-diagnostic-backend/internal/stripe"
	"github.com/nyashahama/ops-diagnostic-backend/internal/worker"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// ── Catalog ───────────────────────────────────────────────────────────────
	// A malformed question table would score silently wrong; refuse to start.
	cat := catalog.Default()
	if err := cat.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	// Root context cancelled by OS signal. Worker and servers all respect it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────────────
	pool, queries, err := openDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	// ── Store (atomic multi-step writes) ──────────────────────────────────────
	st := store.New(pool, queries)

	// ── Lock ──────────────────────────────────────────────────────────────────
	locker, closeLocker, err := openLocker(ctx, cfg.RedisURL, logger)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer closeLocker()

	// ── Stripe ────────────────────────────────────────────────────────────────
	// A nil interface, not a nil *client, so the handlers see it as disabled.
	var stripeClient stripeinternal.Client
	if cfg.StripeEnabled() {
		stripeClient = stripeinternal.NewClient(cfg.StripeSecretKey)
	} else {
		logger.Warn("stripe: not configured, paid checkout disabled")
	}

	// ── AI ────────────────────────────────────────────────────────────────────
	narrator := newNarrator(cfg, logger)

	// ── Email (Resend) ────────────────────────────────────────────────────────
	var mailer email.Sender
	if cfg.ResendAPIKey != "" {
		mailer = email.NewResendClient(cfg.ResendAPIKey, cfg.EmailFromAddr, cfg.EmailFromName)
	} else {
		mailer = email.NewLogSender(logger)
		logger.Warn("email: RESEND_API_KEY not set, emails are logged only")
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	job := worker.NewJob(queries, st, narrator, locker, worker.JobConfig{
		NarrativeTimeout: cfg.NarrativeTimeout,
	}, logger)
	runner := worker.NewRunner(job, queries, worker.RunnerConfig{
		Workers:      cfg.WorkerCount,
		PollInterval: cfg.PollInterval,
		JobTimeout:   cfg.JobTimeout,
		MaxRetries:   cfg.MaxRetries,
	}, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(
		queries,
		st,
		job, // *Job answers synchronous admin regeneration
		cat,
		stripeClient,
		runner, // *Runner satisfies worker.Enqueuer
		mailer,
		api.Config{
			BaseURL:             cfg.BaseURL,
			StripeWebhookSecret: cfg.StripeWebhookSecret,
			PriceCents:          cfg.PriceCents,
			Currency:            cfg.Currency,
			AdminPasswordHash:   cfg.AdminPasswordHash,
			AdminSessionSecret:  cfg.AdminSessionSecret,
			AdminSessionTTL:     cfg.AdminSessionTTL,
			Env:                 cfg.Env,
		},
		logger,
	)

	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 100 * time.Second, // admin narrative regeneration waits on the AI provider
		IdleTimeout:  120 * time.Second,
	}

	// ── gRPC health ───────────────────────────────────────────────────────────
	// Load balancers probe grpc.health.v1 on the same port as the API.
	healthSrv := health.NewServer()
	grpcSrv := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)

	// ── Listener ──────────────────────────────────────────────────────────────
	// One port, split by protocol: HTTP/2 with content-type application/grpc
	// goes to gRPC, everything else to the chi router.
	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	mux := cmux.New(lis)
	grpcLis := mux.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpLis := mux.Match(cmux.Any())

	// Start the worker pool in a background goroutine. It blocks until ctx is done.
	runnerDone := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(runnerDone)
	}()

	serverErr := make(chan error, 3)
	go func() {
		if err := grpcSrv.Serve(grpcLis); err != nil && !errors.Is(err, cmux.ErrListenerClosed) && !errors.Is(err, grpc.ErrServerStopped) {
			serverErr <- fmt.Errorf("grpc: %w", err)
		}
	}()
	go func() {
		if err := srv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, cmux.ErrListenerClosed) {
			serverErr <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		logger.Info("server listening", "addr", lis.Addr().String())
		if err := mux.Serve(); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, cmux.ErrServerClosed) {
			serverErr <- fmt.Errorf("cmux: %w", err)
		}
	}()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Block until either a signal arrives or a server dies unexpectedly.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	// Fail health probes first so traffic drains away.
	healthSrv.Shutdown()

	// Give in-flight HTTP requests up to 20 seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	grpcSrv.GracefulStop()
	mux.Close()

	<-runnerDone
	logger.Info("shutdown complete")
	return nil
}

// openDB opens the connection pool and applies the schema. The server refuses
// to start if the database is unreachable or the migration fails.
func openDB(ctx context.Context, dsn string) (*sql.DB, *db.Queries, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}

	// Tune the connection pool.
	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	// Verify the connection is reachable before proceeding.
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	if err := db.Migrate(pingCtx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	return pool, db.New(pool), nil
}

// openLocker returns the Redis-backed narrative lock when REDIS_URL is set,
// and the in-process lock otherwise.
func openLocker(ctx context.Context, redisURL string, logger *slog.Logger) (lock.Locker, func(), error) {
	if redisURL == "" {
		logger.Warn("redis: REDIS_URL not set, using in-process narrative lock")
		return lock.NewMemoryLocker(), func() {}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	logger.Info("redis connected")
	return lock.NewRedisLocker(client), func() { _ = client.Close() }, nil
}

// newNarrator picks the narrative provider chain. Anthropic is primary and
// DeepSeek the fallback when both keys are set; with no key the template
// narrator is used so reports still ship.
func newNarrator(cfg *config.Config, logger *slog.Logger) ai.Narrator {
	switch {
	case cfg.AnthropicAPIKey != "" && cfg.DeepSeekAPIKey != "":
		primary := ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		secondary := ai.NewDeepSeekClient(cfg.DeepSeekAPIKey, cfg.DeepSeekModel)
		logger.Info("ai: using Anthropic with DeepSeek fallback")
		return ai.NewFallbackNarrator(primary, secondary, logger)
	case cfg.AnthropicAPIKey != "":
		logger.Info("ai: using Anthropic only")
		return ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	case cfg.DeepSeekAPIKey != "":
		logger.Info("ai: using DeepSeek only")
		return ai.NewDeepSeekClient(cfg.DeepSeekAPIKey, cfg.DeepSeekModel)
	default:
		logger.Warn("ai: no provider key set, using template narratives")
		return ai.NewTemplateNarrator()
	}
}
