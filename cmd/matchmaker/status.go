package matchmaker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/config"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/corpus"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the local trial corpus cache",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	if err := client.LoadCachedCorpus(cmd.Context()); err != nil && !errors.Is(err, corpus.ErrNoCorpus) {
		return fmt.Errorf("failed to restore cached corpus: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(client.Status())
}
