package matchmaker

import (
	"fmt"
	"log/slog"
	"os"

	matchmakerlib "github.com/TambeNeel/clinical-trial-matchmaker"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/config"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/embedder"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/logger"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/registry"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/telemetry"
)

// buildLogger creates the CLI logger, optionally wrapping the color handler
// with the parquet telemetry handler so errors are persisted.
func buildLogger(cfg *config.Config) (*slog.Logger, *telemetry.ParquetHandler, error) {
	level := parseLogLevel(cfg.Log.Level)
	colorHandler := logger.NewColorHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})

	if cfg.Telemetry.ParquetPath == "" {
		return slog.New(colorHandler), nil, nil
	}

	parquetHandler, err := telemetry.NewParquetHandler(colorHandler, cfg.Telemetry.ParquetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize error tracking: %w", err)
	}
	return slog.New(parquetHandler), parquetHandler, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newEmbedder resolves the embedding provider from configuration.
func newEmbedder(cfg *config.Config) (embedder.Client, error) {
	embedderConfig := embedder.Config{
		Model:      cfg.Embedding.Model,
		BatchSize:  cfg.Embedding.BatchSize,
		Dimensions: cfg.Embedding.Dimensions,
		BaseURL:    cfg.Embedding.BaseURL,
	}

	switch cfg.Embedding.Provider {
	case "", "embedeverything":
		return embedder.NewEmbedEverythingClient(embedderConfig), nil
	case "openai":
		if cfg.Embedding.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai embedding provider")
		}
		return embedder.NewOpenAIEmbedder(cfg.Embedding.APIKey, embedderConfig), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

// newMatchmaker builds the matchmaker client from configuration.
func newMatchmaker(cfg *config.Config, log *slog.Logger) (*matchmakerlib.Client, error) {
	embedderClient, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	client, err := matchmakerlib.NewClient(embedderClient, &matchmakerlib.Config{
		CacheDir:    cfg.Cache.Dir,
		PatientsDir: cfg.Patients.Dir,
		BatchSize:   cfg.Embedding.BatchSize,
		TopK:        cfg.Cache.TopK,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create matchmaker client: %w", err)
	}

	registryOpts := []registry.Option{registry.WithLogger(log)}
	if cfg.Registry.BaseURL != "" {
		registryOpts = append(registryOpts, registry.WithBaseURL(cfg.Registry.BaseURL))
	}
	client.SetRegistry(registry.NewClient(registryOpts...))

	return client, nil
}
