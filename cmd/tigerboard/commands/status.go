package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonhee/tigerboard/internal/contracts"
)

// statusCmd checks the pipeline's dependencies.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check database, cache and provider wiring",
	Long: `Verify the pipeline can reach its database and cache and show
which providers are enabled.

Example:
  go run ./cmd/tigerboard status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fmt.Printf("env:       %s\n", a.cfg.Env)
	fmt.Printf("baseline:  %s\n", a.cfg.Pipeline.BaselineDate)
	fmt.Printf("schedule:  %s\n", a.cfg.Pipeline.Schedule)

	if err := a.db.Ping(ctx); err != nil {
		fmt.Printf("database:  unreachable (%v)\n", err)
	} else {
		stats := a.db.Stats()
		fmt.Printf("database:  ok (%d/%d conns)\n", stats.AcquiredConns, stats.TotalConns)
	}

	if a.redis.Enabled() {
		if err := a.redis.Redis().Ping(ctx).Err(); err != nil {
			fmt.Printf("redis:     unreachable (%v)\n", err)
		} else {
			fmt.Println("redis:     ok")
		}
	} else {
		fmt.Println("redis:     disabled")
	}

	for _, p := range buildProviders(a.cfg, a.redis, a.log) {
		state := "disabled"
		if p.Available() {
			state = "enabled"
		}
		fmt.Printf("provider:  %-10s %s\n", p.Kind(), state)
	}

	instruments, err := a.instruments.List(ctx, contracts.InstrumentFilter{ActiveOnly: true})
	if err != nil {
		fmt.Printf("tracked:   query failed (%v)\n", err)
		return nil
	}
	fmt.Printf("tracked:   %d active instruments\n", len(instruments))
	return nil
}
