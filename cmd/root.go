/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command - runs directly without subcommand
var rootCmd = &cobra.Command{
	Use:   "batchgitops [config]",
	Short: "Batch git operations across many repositories",
	Long: `batchgitops drives a fixed pipeline across a list of configured
repositories: fetch, branch resolution, text replacement, command
execution and commit/push. Each repository is processed in order;
failures are reported per repository and summarized at the end.

The single optional argument is the path to the configuration
document (default: batchgitops.yaml).

Examples:
  batchgitops
  batchgitops release.yaml
  batchgitops release.yaml --verbose`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := defaultConfigPath
		if len(args) > 0 {
			configPath = args[0]
		}
		return executeRun(configPath)
	},
}

// Execute runs the root command. Exit code 0 means the run completed,
// even with per-repository failures under the continue strategy; a config
// load failure or a stop-triggered abort exits non-zero.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging")
	rootCmd.SilenceUsage = true
}
