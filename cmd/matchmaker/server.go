package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/config"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/corpus"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the matchmaker HTTP server",
	Long: `Start the matchmaker HTTP server to provide REST API access to trial matching.

The server provides endpoints for:
- Ranking trials against patient profiles
- Exporting ranked results as CSV
- Refreshing and rebuilding the trial corpus cache
- Listing stored patient profiles
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 7860, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "release", "Server mode (debug, release, test)")

	// Embedding flags
	serverCmd.Flags().String("embedding-provider", "embedeverything", "Embedding provider (embedeverything, openai)")
	serverCmd.Flags().String("embedding-model", "", "Embedding model")
	serverCmd.Flags().String("embedding-api-key", "", "Embedding API key")
	serverCmd.Flags().String("embedding-base-url", "", "Embedding base URL")

	// Cache flags
	serverCmd.Flags().String("cache-dir", "", "Directory for the embedding cache")
	serverCmd.Flags().String("patients-dir", "", "Directory holding patient profile JSON files")

	// Registry flags
	serverCmd.Flags().String("registry-preset", "", "Registry fetch preset (quick, medium, full)")
	serverCmd.Flags().Bool("refresh-on-start", false, "Fetch a fresh corpus from the registry before serving")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for error telemetry")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	overrideConfigWithFlags(cmd, cfg)

	// Validate configuration
	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, parquetHandler, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	if parquetHandler != nil {
		defer parquetHandler.Flush()
		fmt.Println("Error tracking enabled")
	}

	// Initialize matchmaker
	fmt.Println("Initializing matchmaker...")
	client, err := newMatchmaker(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize matchmaker: %w", err)
	}
	defer client.Close()

	refreshOnStart, _ := cmd.Flags().GetBool("refresh-on-start")
	if refreshOnStart {
		fmt.Printf("Fetching trial corpus (preset: %s)...\n", cfg.Registry.Preset)
		if err := client.RefreshCorpus(cmd.Context(), cfg.Registry.Preset); err != nil {
			return fmt.Errorf("initial corpus refresh failed: %w", err)
		}
	} else if err := client.LoadCachedCorpus(cmd.Context()); err != nil {
		if errors.Is(err, corpus.ErrNoCorpus) {
			fmt.Println("No cached trial corpus yet; POST /refresh to load one")
		} else {
			return fmt.Errorf("failed to restore cached corpus: %w", err)
		}
	}

	// Create and setup server
	srv := server.New(cfg, client)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		// Create shutdown context with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Shutdown server
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Embedding flags
	if cmd.Flags().Changed("embedding-provider") {
		cfg.Embedding.Provider, _ = cmd.Flags().GetString("embedding-provider")
	}
	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}
	if cmd.Flags().Changed("embedding-api-key") {
		cfg.Embedding.APIKey, _ = cmd.Flags().GetString("embedding-api-key")
	}
	if cmd.Flags().Changed("embedding-base-url") {
		cfg.Embedding.BaseURL, _ = cmd.Flags().GetString("embedding-base-url")
	}

	// Cache flags
	if cmd.Flags().Changed("cache-dir") {
		cfg.Cache.Dir, _ = cmd.Flags().GetString("cache-dir")
	}
	if cmd.Flags().Changed("patients-dir") {
		cfg.Patients.Dir, _ = cmd.Flags().GetString("patients-dir")
	}

	// Registry flags
	if cmd.Flags().Changed("registry-preset") {
		cfg.Registry.Preset, _ = cmd.Flags().GetString("registry-preset")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	if cfg.Cache.Dir == "" {
		return fmt.Errorf("cache directory is required")
	}
	return nil
}
