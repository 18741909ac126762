package matchmaker

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/config"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Discard persisted embeddings and re-encode the cached corpus",
	RunE:  runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
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

	if err := client.LoadCachedCorpus(cmd.Context()); err != nil {
		return fmt.Errorf("no cached trial corpus, run fetch first: %w", err)
	}

	if err := client.RebuildEmbeddings(cmd.Context()); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	status := client.Status()
	fmt.Printf("Embeddings rebuilt: %d vectors\n", status.EmbeddingsVectors)
	return nil
}
