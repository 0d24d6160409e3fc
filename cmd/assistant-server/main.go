// cmd/assistant-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sylo-assistant/internal/assistant/ai"
	"sylo-assistant/internal/assistant/composer"
	"sylo-assistant/internal/assistant/dispatch"
	"sylo-assistant/internal/assistant/parser"
	"sylo-assistant/internal/assistant/schema"
	"sylo-assistant/internal/assistant/suggest"
	"sylo-assistant/internal/common/auth"
	"sylo-assistant/internal/common/config"
	"sylo-assistant/internal/common/database"
	"sylo-assistant/internal/common/logger"
	"sylo-assistant/internal/common/observability"
	"sylo-assistant/internal/conversation"
	"sylo-assistant/internal/repository"
	"sylo-assistant/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting assistant server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("assistant-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rd *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rd, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rd.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rd.Close()
	zapLog.Info("Redis connected successfully")

	// --- Intent schema registry ---
	registry, err := schema.Load(cfg.Assistant.SchemaFile)
	if err != nil {
		zapLog.Fatal("schema registry load failed", zap.Error(err))
	}

	// --- Pipeline wiring ---
	completionClient := ai.Shared(cfg.OpenAI)
	store := repository.NewPostgresStore(pg, log)

	handler := server.NewAssistantHandler(
		cfg.Assistant,
		parser.New(parser.LoadConfig(cfg.OpenAI), completionClient, registry, log),
		dispatch.New(store, log),
		composer.New(composer.LoadConfig(cfg.OpenAI), completionClient, log),
		suggest.New(),
		conversation.NewRecorder(store, log),
		conversation.NewSessionStore(rd.GetClient(), time.Duration(cfg.Assistant.SessionTTL)*time.Second, log),
		obs,
		log,
	)

	// TODO: replace the static identity with the session-token
	// authenticator once the account service exposes introspection.
	authenticator := &auth.StaticAuthenticator{Identity: auth.DefaultDevelopmentIdentity()}

	srv := server.New(cfg.Server, handler, authenticator, log)

	// --- Metrics endpoint (ops port) ---
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		zapLog.Info("metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	zapLog.Info("Assistant server running",
		zap.Int("port", cfg.Server.Port),
		zap.String("environment", cfg.App.Environment),
	)

	// --- Graceful shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutdown signal received, draining...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}

	zapLog.Info("Assistant server stopped")
}
