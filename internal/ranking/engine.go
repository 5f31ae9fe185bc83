// Package ranking computes the daily leaderboards. Change rate is
// measured against each instrument's baseline price; instruments with
// no baseline or no record for the date are excluded from that date's
// board rather than ranked last. That exclusion is deliberate: an
// instrument that has not traded yet is "not eligible", not "worst".
package ranking

import (
	"context"
	"sort"
	"time"

	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/internal/dates"
	"github.com/wonhee/tigerboard/pkg/logger"
)

// Engine computes and persists ranking snapshots.
type Engine struct {
	instruments contracts.InstrumentRepository
	records     contracts.RecordRepository
	snapshots   contracts.SnapshotRepository
	logger      *logger.Logger
}

// NewEngine creates the engine.
func NewEngine(
	instruments contracts.InstrumentRepository,
	records contracts.RecordRepository,
	snapshots contracts.SnapshotRepository,
	log *logger.Logger,
) *Engine {
	return &Engine{
		instruments: instruments,
		records:     records,
		snapshots:   snapshots,
		logger:      log.WithField("module", "ranking"),
	}
}

// entry is one eligible instrument's performance for the date.
type entry struct {
	instrument *contracts.Instrument
	changeRate float64
}

// ComputeAssetRanking ranks every eligible instrument for the date and
// replaces that date's asset snapshot set.
func (e *Engine) ComputeAssetRanking(ctx context.Context, date time.Time) ([]*contracts.RankingSnapshot, error) {
	date = dates.Day(date)

	entries, err := e.eligibleEntries(ctx, date)
	if err != nil {
		return nil, err
	}
	sortEntries(entries)

	snapshots := make([]*contracts.RankingSnapshot, 0, len(entries))
	for i, en := range entries {
		snapshots = append(snapshots, &contracts.RankingSnapshot{
			Date:         date,
			InstrumentID: en.instrument.ID,
			UserID:       en.instrument.UserID,
			RankType:     contracts.RankTypeAsset,
			Rank:         i + 1,
			ChangeRate:   en.changeRate,
			IsCore:       en.instrument.IsCore,
		})
	}

	if err := e.snapshots.Replace(ctx, date, contracts.RankTypeAsset, snapshots); err != nil {
		return nil, err
	}
	e.logger.WithFields(map[string]interface{}{
		"date":  dates.Format(date),
		"count": len(snapshots),
	}).Info("Asset ranking computed")
	return snapshots, nil
}

// ComputeUserRanking ranks every user by their best-performing
// instrument for the date and replaces that date's user snapshot set.
// The is_core flag does not influence the selection.
func (e *Engine) ComputeUserRanking(ctx context.Context, date time.Time) ([]*contracts.RankingSnapshot, error) {
	date = dates.Day(date)

	entries, err := e.eligibleEntries(ctx, date)
	if err != nil {
		return nil, err
	}

	// Best instrument per user, same tie-break as the board itself.
	best := make(map[int64]entry)
	for _, en := range entries {
		cur, ok := best[en.instrument.UserID]
		if !ok || better(en, cur) {
			best[en.instrument.UserID] = en
		}
	}

	picked := make([]entry, 0, len(best))
	for _, en := range best {
		picked = append(picked, en)
	}
	sortEntries(picked)

	snapshots := make([]*contracts.RankingSnapshot, 0, len(picked))
	for i, en := range picked {
		snapshots = append(snapshots, &contracts.RankingSnapshot{
			Date:         date,
			InstrumentID: en.instrument.ID,
			UserID:       en.instrument.UserID,
			RankType:     contracts.RankTypeUser,
			Rank:         i + 1,
			ChangeRate:   en.changeRate,
			IsCore:       en.instrument.IsCore,
		})
	}

	if err := e.snapshots.Replace(ctx, date, contracts.RankTypeUser, snapshots); err != nil {
		return nil, err
	}
	e.logger.WithFields(map[string]interface{}{
		"date":  dates.Format(date),
		"count": len(snapshots),
	}).Info("User ranking computed")
	return snapshots, nil
}

// GetAssetRanking reads the persisted asset board for a date.
func (e *Engine) GetAssetRanking(ctx context.Context, date time.Time) ([]*contracts.RankingSnapshot, error) {
	return e.snapshots.List(ctx, dates.Day(date), contracts.RankTypeAsset)
}

// GetUserRanking reads the persisted user board for a date.
func (e *Engine) GetUserRanking(ctx context.Context, date time.Time) ([]*contracts.RankingSnapshot, error) {
	return e.snapshots.List(ctx, dates.Day(date), contracts.RankTypeUser)
}

// eligibleEntries collects every instrument with both a baseline price
// and a record on the date, with its change rate.
func (e *Engine) eligibleEntries(ctx context.Context, date time.Time) ([]entry, error) {
	instruments, err := e.instruments.List(ctx, contracts.InstrumentFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	entries := make([]entry, 0, len(instruments))
	for _, inst := range instruments {
		if inst.BaselinePrice == nil || *inst.BaselinePrice == 0 {
			e.logger.WithFields(map[string]interface{}{
				"instrument_id": inst.ID,
				"kind":          contracts.KindMissingBaseline,
			}).Debug("Instrument not yet eligible")
			continue
		}

		rec, err := e.records.GetByInstrumentAndDate(ctx, inst.ID, date)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}

		entries = append(entries, entry{
			instrument: inst,
			changeRate: ChangeRate(rec.Close, *inst.BaselinePrice),
		})
	}
	return entries, nil
}

// ChangeRate is the percent change of close against the baseline.
func ChangeRate(close, baseline float64) float64 {
	return (close - baseline) / baseline * 100
}

// better reports whether a should outrank b: higher change rate wins,
// lower instrument id breaks ties.
func better(a, b entry) bool {
	if a.changeRate != b.changeRate {
		return a.changeRate > b.changeRate
	}
	return a.instrument.ID < b.instrument.ID
}

func sortEntries(entries []entry) {
	sort.Slice(entries, func(i, j int) bool { return better(entries[i], entries[j]) })
}
