package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prioritizer",
	Short: "AI-assisted task prioritization",
	Long: `prioritizer collects a daily goal and a list of tasks, delegates the
ordering to an AI model, and keeps the result in a single-file session.

Run the HTTP server with 'prioritizer serve' or use the interactive
terminal agent with 'prioritizer agent'.`,
}

var configFile string

// ExecuteContext runs the root command with the given context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .prioritizer.yaml)")
}
