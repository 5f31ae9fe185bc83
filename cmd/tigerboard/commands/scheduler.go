package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonhee/tigerboard/internal/scheduler"
	"github.com/wonhee/tigerboard/internal/scheduler/jobs"
)

// schedulerCmd runs the cron scheduler in the foreground.
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the daily update scheduler",
	Long: `Run the cron scheduler that fetches data and recomputes the
leaderboards after market close (default 17:30 on weekdays, set
UPDATE_SCHEDULE to change).

Example:
  go run ./cmd/tigerboard scheduler
  go run ./cmd/tigerboard scheduler --now`,
	RunE: runScheduler,
}

var schedulerRunNow bool

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.Flags().BoolVar(&schedulerRunNow, "now", false, "run the daily update immediately, then keep the schedule")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.log)
	job := jobs.NewDailyUpdateJob(a.collector, a.ranking, a.cfg.Pipeline.Schedule, a.log)
	if err := sched.AddJob(job); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	fmt.Println("Scheduler started. Registered jobs:")
	for _, name := range sched.Jobs() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("Press Ctrl+C to stop")

	if schedulerRunNow {
		if err := sched.RunJob(job.Name()); err != nil {
			return err
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	a.log.WithField("signal", sig.String()).Info("Shutdown signal received")

	if history, err := sched.GetJobHistory(job.Name()); err == nil {
		for _, result := range history.Latest(1) {
			fmt.Printf("Last run: success=%t duration=%s\n", result.Success, result.Duration)
		}
	}
	return nil
}
