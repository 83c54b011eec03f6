package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/prioritizer/internal/config"
	"github.com/felixgeelhaar/prioritizer/internal/health"
	"github.com/felixgeelhaar/prioritizer/internal/log"
	"github.com/felixgeelhaar/prioritizer/internal/prioritize"
	"github.com/felixgeelhaar/prioritizer/internal/provider"
	"github.com/felixgeelhaar/prioritizer/internal/server"
	"github.com/felixgeelhaar/prioritizer/internal/store"
	"github.com/felixgeelhaar/prioritizer/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server exposing the task prioritization API and the
embedded web client.

API endpoints:
  POST /api/prioritize   - prioritize a goal and task list via the AI model
  GET  /api/load         - load the last saved session
  POST /api/save         - save the current session
  PUT  /api/tasks/{i}    - update one task's completion flag

Health probe endpoints:
  /health/live, /health/ready, /health/startup, /healthz

The server requires GROQ_API_KEY in the environment and fails fast at
startup when it is missing. It shuts down gracefully on SIGTERM or
SIGINT, draining connections before exit.

Example:
  # Start server on the default address 0.0.0.0:8080
  GROQ_API_KEY=... prioritizer serve

  # Custom address and data directory
  prioritizer serve --address 127.0.0.1:9090 --data-dir /var/lib/prioritizer`,
	RunE: runServe,
}

var (
	serveAddress         string
	serveDataDir         string
	serveShutdownTimeout time.Duration
)

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "session data directory (overrides config)")
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 0, "maximum time to wait for connections to drain during shutdown")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Fail fast on configuration problems, before any request is served.
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if serveAddress != "" {
		cfg.Server.Address = serveAddress
	}
	if serveDataDir != "" {
		cfg.Storage.Dir = serveDataDir
	}
	if serveShutdownTimeout != 0 {
		cfg.Server.ShutdownTimeout = serveShutdownTimeout
	}

	logger := log.New(log.Config{
		Level:          log.ParseLevel(cfg.Log.Level),
		Format:         log.ParseFormat(cfg.Log.Format),
		Output:         log.OutputStdout(),
		ServiceName:    "prioritizer",
		ServiceVersion: version.GetInfo().Short(),
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

	pm := health.NewProbeManager(version.GetInfo().Short())
	pm.AddChecker(health.NewProviderChecker(client))
	pm.AddChecker(health.NewStoreChecker(st))

	srv := server.NewServer(
		prioritize.New(client, logger),
		st,
		pm,
		logger,
		server.Config{
			Address:         cfg.Server.Address,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			IdleTimeout:     cfg.Server.IdleTimeout,
		},
	)

	logger.Info("server starting",
		"address", cfg.Server.Address,
		"model", cfg.Provider.Model,
		"data_dir", cfg.Storage.Dir,
		"health_checks", pm.Count(),
		"version", version.GetInfo().Short())
	fmt.Printf("Listening on http://%s\n", cfg.Server.Address)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)

	case sig := <-sigChan:
		logger.Info("shutdown signal received", "signal", sig.String())

		// The command context is already cancelled once the signal
		// arrives, so the drain window needs its own context.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}

		logger.Info("server stopped gracefully")
		return nil
	}
}
