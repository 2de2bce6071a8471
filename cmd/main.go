package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"cargo-chat/handler"
	"cargo-chat/internal/config"
	"cargo-chat/internal/grounding"
	"cargo-chat/internal/integrations/ollama"
	"cargo-chat/internal/integrations/paramstore"
	"cargo-chat/internal/repository"
	"cargo-chat/internal/usecase"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config", err)
	}

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		fatal("failed to load AWS config", err)
	}

	if cfg.ParamPrefix != "" {
		params, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			fatal("failed to create SSM client", err)
		}
		if err := cfg.ApplyParams(ctx, params); err != nil {
			fatal("failed to load parameters", err)
		}
	}

	// ---- Clients ----
	store, err := repository.NewStore(ctx, repository.StoreOptions{
		DatabaseURL:   cfg.Store.DatabaseURL,
		Dynamo:        awsdynamodb.NewFromConfig(awsCfg),
		TableName:     cfg.Store.Table,
		CustomerIndex: cfg.Store.CustomerIndex,
		SeedFile:      cfg.Store.SeedFile,
	})
	if err != nil {
		fatal("failed to create shipment store", err)
	}

	selector, err := grounding.NewSelector(store)
	if err != nil {
		fatal("failed to create grounding selector", err)
	}

	llm := ollama.NewClient(
		ollama.WithBaseURL(cfg.Ollama.URL),
		ollama.WithTimeout(cfg.Ollama.Timeout),
		ollama.WithGeneration(cfg.Ollama.NumCtx, cfg.Ollama.NumPredict, cfg.Ollama.Temperature),
	)

	// ---- Handler ----
	chatService, err := usecase.NewChatService(llm, selector, usecase.ChatOptions{
		Model:            cfg.Ollama.Model,
		MaxMessages:      cfg.App.MaxMessages,
		MaxMessageLength: cfg.App.MaxMessageLength,
		Logger:           logger,
	})
	if err != nil {
		fatal("failed to create chat service", err)
	}

	h, err := handler.NewHandler(chatService, handler.WithLogger(logger))
	if err != nil {
		fatal("failed to create handler", err)
	}

	logger.Info("starting lambda", slog.String("model", cfg.Ollama.Model))
	lambda.Start(h.Handle)
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
