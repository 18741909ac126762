package matchmaker

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/config"
)

var matchCmd = &cobra.Command{
	Use:   "match <patient-id>",
	Short: "Rank cached trials against a stored patient profile",
	Long: `Rank every trial of the cached corpus against a stored patient profile
and print the top-K explained results as JSON.

The patient profile is read from the patients directory; the trial corpus
must have been fetched beforehand (see the fetch command).`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Int("top-k", 0, "Shortlist length (0 uses the configured default)")
}

func runMatch(cmd *cobra.Command, args []string) error {
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

	topK, _ := cmd.Flags().GetInt("top-k")

	results, err := client.MatchPatient(cmd.Context(), args[0], topK)
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
