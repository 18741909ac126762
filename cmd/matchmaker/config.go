package matchmaker

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/config"
)

var configSampleCmd = &cobra.Command{
	Use:   "config-sample",
	Short: "Print a sample configuration file with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := config.Sample()
		if err != nil {
			return fmt.Errorf("failed to render sample config: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configSampleCmd)
}
