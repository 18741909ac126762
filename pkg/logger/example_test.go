package logger_test

import (
	"log/slog"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/logger"
)

func ExampleNewDefaultLogger() {
	// Create a logger with default settings
	log := logger.NewDefaultLogger(slog.LevelDebug)

	// Log different levels
	log.Debug("This is a debug message")
	log.Info("This is an info message")
	log.Info("Corpus refreshed from registry") // Will be green in terminal
	log.Warn("This is a warning message")      // Will be yellow in terminal
	log.Error("This is an error message")      // Will be red in terminal
}

func ExampleNewColorHandler() {
	log := logger.NewDefaultLogger(slog.LevelInfo)

	// Log with attributes
	log.Info("Processing match request", "patient_id", "patient_001", "top_k", 50)
	log.Info("Embeddings loaded from disk", "rows", 812, "fingerprint", "3fb04c1a9d2e") // Green
	log.Warn("Registry page fetch retried", "attempt", 2, "delay", "3s")                // Yellow
	log.Error("Embedding provider failed", "error", "timeout", "batch", 3)              // Red
}
