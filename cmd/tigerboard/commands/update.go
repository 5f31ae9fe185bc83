package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// updateCmd runs one batch from the command line.
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run a batch update now",
	Long: `Fetch today's data for tracked instruments and print the batch
accounting. Instruments that already have today's record are skipped
unless --force is set.

Example:
  go run ./cmd/tigerboard update
  go run ./cmd/tigerboard update --force
  go run ./cmd/tigerboard update --ids 12,34`,
	RunE: runUpdate,
}

var (
	updateForce bool
	updateIDs   []int64
)

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "overwrite existing records")
	updateCmd.Flags().Int64SliceVar(&updateIDs, "ids", nil, "instrument ids (default: all active)")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// Ctrl-C stops dispatching new fetches; in-flight ones finish and
	// the partial accounting still prints.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := a.collector.RunBatch(ctx, updateIDs, updateForce)
	if err != nil {
		return fmt.Errorf("run batch: %w", err)
	}

	fmt.Printf("run %s: total=%d succeeded=%d failed=%d skipped=%d in %s\n",
		result.RunID, result.Total, result.Succeeded, result.Failed, result.Skipped,
		result.Finished.Sub(result.Started).Round(time.Millisecond))
	for _, o := range result.Outcomes {
		if o.ErrorKind != "" {
			fmt.Printf("  %-12s %s: %v\n", o.Code, o.ErrorKind, o.Err)
		}
	}
	return nil
}
