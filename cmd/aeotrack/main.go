package main

import (
	"fmt"
	"os"

	"github.com/aeotrackhq/aeotrack/internal/cli"
	"github.com/aeotrackhq/aeotrack/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "aeotrack",
		Short: "Aeotrack CLI - brand visibility in AI search answers",
		Long: `Aeotrack CLI tracks how often AI answer engines mention your brand.

Environment variables:
  AEOTRACK_API_KEY   API key for authentication (required)
  AEOTRACK_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.ProjectCmd())
	rootCmd.AddCommand(client.CheckCmd())
	rootCmd.AddCommand(client.StatsCmd())
	rootCmd.AddCommand(client.ExportCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
