package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/xaenox/iforgot/internal/classifier"
	"github.com/xaenox/iforgot/internal/notes"
	"github.com/xaenox/iforgot/internal/storage"
	"github.com/xaenox/iforgot/internal/transcribe"
	"github.com/xaenox/iforgot/pkg/config"
)

// ownerSeeder creates owner rows; only PostgreSQL has them.
type ownerSeeder interface {
	EnsureOwner(ctx context.Context, ownerID, email string) error
}

// app holds the components shared by serve and bot.
type app struct {
	store       storage.Storage
	seeder      ownerSeeder
	notes       *notes.Service
	transcriber transcribe.Transcriber
}

func openStore(cfg *config.Config, logger *zap.Logger) (storage.Storage, *storage.PostgresStorage, error) {
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil, nil
	}

	logger.Info("Using PostgreSQL storage")
	pg, err := storage.NewPostgresStorage(databaseConfig(cfg), logger)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg, nil
}

func databaseConfig(cfg *config.Config) storage.DatabaseConfig {
	return storage.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	}
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	store, pg, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	clf, provider := classifier.New(
		classifier.ClaudeConfig{
			APIKey:    cfg.Anthropic.APIKey,
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
			BaseURL:   cfg.Anthropic.BaseURL,
			Timeout:   cfg.Anthropic.Timeout,
		},
		classifier.GPTConfig{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
			BaseURL:     cfg.OpenAI.BaseURL,
		},
		logger,
	)
	if provider == classifier.ProviderNone {
		logger.Warn("No classifier API key configured, notes will be saved without analysis")
	} else {
		logger.Info("Classifier ready", zap.String("provider", provider))
	}

	tr, trProvider := transcribe.New(
		transcribe.DeepgramConfig{
			APIKey:  cfg.Deepgram.APIKey,
			BaseURL: cfg.Deepgram.BaseURL,
			Timeout: cfg.Deepgram.Timeout,
		},
		transcribe.WhisperConfig{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.TranscriptionModel,
			BaseURL: cfg.OpenAI.BaseURL,
		},
		logger,
	)
	logger.Info("Transcriber ready", zap.String("provider", trProvider))

	var seeder ownerSeeder
	if pg != nil {
		seeder = pg
	}

	return &app{
		store:       store,
		seeder:      seeder,
		notes:       notes.NewService(store, clf, logger),
		transcriber: tr,
	}, nil
}

// ensureOwner seeds an owner row when running on PostgreSQL. The in-memory
// store has no owner table.
func (a *app) ensureOwner(ctx context.Context, ownerID string) error {
	if a.seeder == nil {
		return nil
	}
	return a.seeder.EnsureOwner(ctx, ownerID, "")
}

func (a *app) Close() error {
	return a.store.Close()
}
