// Command chatd serves the shipment chat over plain HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cargo-chat/handler"
	"cargo-chat/internal/config"
	"cargo-chat/internal/grounding"
	"cargo-chat/internal/integrations/ollama"
	"cargo-chat/internal/observability"
	"cargo-chat/internal/repository"
	"cargo-chat/internal/telemetry"
	"cargo-chat/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("chatd stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// A missing .env is fine; the environment is authoritative.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.App.Tracing {
		shutdown, err := telemetry.Setup(telemetry.Options{ServiceName: "cargo-chat", Writer: os.Stdout}, logger)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logger.Warn("tracer shutdown failed", "err", err)
			}
		}()
	}

	store, err := repository.NewStore(ctx, repository.StoreOptions{
		DatabaseURL: cfg.Store.DatabaseURL,
		SeedFile:    cfg.Store.SeedFile,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	selector, err := grounding.NewSelector(store)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics(cfg.App.MetricsNamespace)
	llm := ollama.NewClient(
		ollama.WithBaseURL(cfg.Ollama.URL),
		ollama.WithTimeout(cfg.Ollama.Timeout),
		ollama.WithGeneration(cfg.Ollama.NumCtx, cfg.Ollama.NumPredict, cfg.Ollama.Temperature),
	)

	chatService, err := usecase.NewChatService(llm, selector, usecase.ChatOptions{
		Model:            cfg.Ollama.Model,
		MaxMessages:      cfg.App.MaxMessages,
		MaxMessageLength: cfg.App.MaxMessageLength,
		Logger:           logger,
		Metrics:          metrics,
	})
	if err != nil {
		return err
	}

	h, err := handler.NewHandler(chatService, handler.WithLogger(logger), handler.WithMetrics(metrics))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.App.BindAddr,
		Handler:           h.Router(metrics.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			slog.String("addr", cfg.App.BindAddr),
			slog.String("model", cfg.Ollama.Model),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
