package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonhee/tigerboard/internal/api"
	"github.com/wonhee/tigerboard/internal/api/handlers"
)

// apiCmd starts the HTTP API server.
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the leaderboard REST API server.

Endpoints:
  GET  /health                 - Health check
  POST /api/update             - Trigger a batch run
  GET  /api/ranking/assets     - Asset leaderboard (?date=YYYY-MM-DD)
  GET  /api/ranking/users      - User leaderboard (?date=YYYY-MM-DD)
  GET  /api/stability/{id}     - Stability readout for an instrument
  GET  /ws/progress            - Live batch progress feed

Example:
  go run ./cmd/tigerboard api
  go run ./cmd/tigerboard api --port 8085`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	progress := api.NewProgressHub(a.log)
	a.collector.SetProgress(progress.PublishOutcome)

	updateHandler := handlers.NewUpdateHandler(a.collector, a.log)
	updateHandler.OnComplete(progress.PublishSummary)

	router := api.NewRouter(
		updateHandler,
		handlers.NewRankingHandler(a.ranking, a.cache, a.log),
		handlers.NewStabilityHandler(a.stability, a.cache, a.log),
		progress,
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
