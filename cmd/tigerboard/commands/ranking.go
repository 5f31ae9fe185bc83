package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonhee/tigerboard/internal/dates"
)

// rankingCmd recomputes and prints the leaderboards for a date.
var rankingCmd = &cobra.Command{
	Use:   "ranking",
	Short: "Recompute leaderboards for a date",
	Long: `Recompute the asset and user leaderboards from persisted
records and print them.

Example:
  go run ./cmd/tigerboard ranking
  go run ./cmd/tigerboard ranking --date 2026-08-28`,
	RunE: runRanking,
}

var rankingDate string

func init() {
	rootCmd.AddCommand(rankingCmd)
	rankingCmd.Flags().StringVar(&rankingDate, "date", "", "target date YYYY-MM-DD (default: today)")
}

func runRanking(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	date := dates.Day(time.Now().UTC())
	if rankingDate != "" {
		canonical, err := dates.Normalize(rankingDate)
		if err != nil {
			return err
		}
		if date, err = dates.Parse(canonical); err != nil {
			return err
		}
	}

	ctx := context.Background()

	assets, err := a.ranking.ComputeAssetRanking(ctx, date)
	if err != nil {
		return fmt.Errorf("compute asset ranking: %w", err)
	}
	users, err := a.ranking.ComputeUserRanking(ctx, date)
	if err != nil {
		return fmt.Errorf("compute user ranking: %w", err)
	}

	fmt.Printf("asset ranking for %s (%d rows):\n", dates.Format(date), len(assets))
	for _, s := range assets {
		fmt.Printf("  #%-3d instrument=%-6d %+.2f%%\n", s.Rank, s.InstrumentID, s.ChangeRate)
	}
	fmt.Printf("user ranking for %s (%d rows):\n", dates.Format(date), len(users))
	for _, s := range users {
		fmt.Printf("  #%-3d user=%-6d instrument=%-6d %+.2f%%\n", s.Rank, s.UserID, s.InstrumentID, s.ChangeRate)
	}
	return nil
}
