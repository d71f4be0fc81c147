// Command server starts the EdAgent career-coaching HTTP server.
package main

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

	"github.com/joho/godotenv"

	"github.com/hamdani2020/EdAgent-sub002/internal/adapter/ai/gemini"
	"github.com/hamdani2020/EdAgent-sub002/internal/adapter/ai/stub"
	httpserver "github.com/hamdani2020/EdAgent-sub002/internal/adapter/httpserver"
	"github.com/hamdani2020/EdAgent-sub002/internal/adapter/observability"
	"github.com/hamdani2020/EdAgent-sub002/internal/adapter/repo/postgres"
	"github.com/hamdani2020/EdAgent-sub002/internal/adapter/state/memory"
	redisstate "github.com/hamdani2020/EdAgent-sub002/internal/adapter/state/redis"
	"github.com/hamdani2020/EdAgent-sub002/internal/app"
	"github.com/hamdani2020/EdAgent-sub002/internal/config"
	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
	"github.com/hamdani2020/EdAgent-sub002/internal/usecase"
)

func main() {
	// Local development keeps credentials in .env; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process so that /metrics
	// exposes HTTP, AI, and conversation instrumentation.
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	// Infra: DB pool
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	contexts := postgres.NewContextRepo(pool)

	// Conversation state store: redis when configured, in-memory otherwise.
	var states domain.StateStore
	var redisCheck func(context.Context) error
	if cfg.RedisURL != "" {
		store, err := redisstate.New(ctx, cfg.RedisURL, 0)
		if err != nil {
			slog.Error("redis connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		states = store
		redisCheck = store.Ping
		slog.Info("using redis state store")
	} else {
		states = memory.New()
		slog.Info("using in-memory state store")
	}

	// AI client: Gemini when configured, deterministic stub otherwise.
	var aiClient domain.AIClient
	if cfg.UseGemini() {
		aiClient, err = gemini.New(ctx, cfg)
		if err != nil {
			slog.Error("gemini client init failed", slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("using gemini AI client", slog.String("chat_model", cfg.GeminiChatModel))
	} else {
		aiClient = stub.New()
		slog.Info("using stub AI client")
	}

	// Usecases
	assessments := usecase.NewAssessmentEngine(aiClient, logger)
	interviews := usecase.NewInterviewService(aiClient, logger, cfg.GuidanceCacheTTL)
	paths := usecase.NewLearningPathService(aiClient, logger)
	conversations := usecase.NewConversationService(states, contexts, aiClient, assessments, interviews, paths, logger)

	dbCheck := func(ctx context.Context) error { return pool.Ping(ctx) }

	// HTTP server
	srv := httpserver.NewServer(cfg, conversations, interviews, contexts, dbCheck, redisCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
