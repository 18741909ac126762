package matchmaker

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/config"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch trials from ClinicalTrials.gov and rebuild the local cache",
	Long: `Fetch trial records from the ClinicalTrials.gov registry using a named
preset and adopt them as the local corpus. Embeddings are reused from disk
when the corpus content has not changed.`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().String("preset", "", "Registry fetch preset (quick, medium, full)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if preset, _ := cmd.Flags().GetString("preset"); preset != "" {
		cfg.Registry.Preset = preset
	}

	log, parquetHandler, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	if parquetHandler != nil {
		defer parquetHandler.Flush()
	}

	client, err := newMatchmaker(cfg, log)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Printf("Fetching trials (preset: %s)...\n", cfg.Registry.Preset)
	if err := client.RefreshCorpus(cmd.Context(), cfg.Registry.Preset); err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	status := client.Status()
	fmt.Printf("Corpus refreshed: %d trials, %d vectors, disk cache: %v\n",
		status.TrialRows, status.EmbeddingsVectors, status.EmbeddingsDisk)
	return nil
}
