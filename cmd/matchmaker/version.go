package matchmaker

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/server/handlers"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("matchmaker %s\n", handlers.Version)
		fmt.Printf("  git commit: %s\n", handlers.GitCommit)
		fmt.Printf("  build time: %s\n", handlers.BuildTime)
		fmt.Printf("  go version: %s\n", handlers.GoVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
