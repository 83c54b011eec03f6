package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/prioritizer/internal/config"
	"github.com/felixgeelhaar/prioritizer/internal/log"
	"github.com/felixgeelhaar/prioritizer/internal/prioritize"
	"github.com/felixgeelhaar/prioritizer/internal/provider"
	"github.com/felixgeelhaar/prioritizer/internal/store"
	"github.com/felixgeelhaar/prioritizer/internal/tui"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the interactive terminal agent",
	Long: `Run the interactive terminal agent: create a new prioritized task
list, reload your last session, or mark tasks complete, without the
HTTP server. Uses the same AI provider and session file as 'serve'.

Requires GROQ_API_KEY in the environment.`,
	RunE: runAgent,
}

var agentDataDir string

func init() {
	agentCmd.Flags().StringVar(&agentDataDir, "data-dir", "", "session data directory (overrides config)")

	rootCmd.AddCommand(agentCmd)
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if agentDataDir != "" {
		cfg.Storage.Dir = agentDataDir
	}

	// Keep structured logs off the interactive screen.
	logger := log.New(log.Config{
		Level:  log.LevelWarn,
		Format: log.FormatText,
		Output: log.OutputStderr(),
	})
	log.SetDefaultLogger(logger)

	client, err := provider.NewGroqClient(provider.GroqConfig{
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.Model,
		Timeout: cfg.Provider.Timeout,
	})
	if err != nil {
		return err
	}

	st, err := store.New(cfg.Storage.Dir)
	if err != nil {
		return err
	}

	agent := tui.NewAgent(prioritize.New(client, logger), st, logger)
	return agent.Run(cmd.Context())
}
