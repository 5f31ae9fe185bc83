// Package collector orchestrates the daily batch: it walks the
// instrument set with bounded concurrency, routes each instrument to a
// provider, normalizes and persists what comes back, and returns a full
// per-instrument accounting. All batch orchestration goes through this
// package.
package collector

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/internal/dates"
	"github.com/wonhee/tigerboard/internal/records"
	"github.com/wonhee/tigerboard/internal/router"
	"github.com/wonhee/tigerboard/pkg/logger"
)

// Config holds orchestration knobs.
type Config struct {
	Workers      int           // concurrent instrument fetches
	FetchTimeout time.Duration // per-instrument provider deadline
	BaselineDate time.Time     // leaderboard reference date
}

// ProgressFunc receives each outcome as it completes. Used by the
// websocket progress feed; nil means no feed.
type ProgressFunc func(contracts.FetchOutcome)

// Collector is the batch orchestrator.
type Collector struct {
	router      *router.Router
	instruments contracts.InstrumentRepository
	records     contracts.RecordRepository
	logger      *logger.Logger
	cfg         Config
	progress    ProgressFunc
}

// New creates the orchestrator.
func New(
	rt *router.Router,
	instruments contracts.InstrumentRepository,
	recs contracts.RecordRepository,
	cfg Config,
	log *logger.Logger,
) *Collector {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Collector{
		router:      rt,
		instruments: instruments,
		records:     recs,
		logger:      log.WithField("module", "collector"),
		cfg:         cfg,
	}
}

// SetProgress installs the per-outcome progress sink. Must be called
// before RunBatch.
func (c *Collector) SetProgress(fn ProgressFunc) {
	c.progress = fn
}

// RunBatch fetches today's data for the given instrument ids (nil means
// every active instrument). One instrument's failure never aborts the
// batch; every instrument lands in exactly one of succeeded, failed or
// skipped.
//
// Cancellation stops dispatching new fetches but lets in-flight ones
// complete, so a canceled run still returns a valid partial result.
func (c *Collector) RunBatch(ctx context.Context, ids []int64, force bool) (*contracts.BatchResult, error) {
	result := &contracts.BatchResult{
		RunID:   uuid.New(),
		Started: time.Now().UTC(),
	}

	instruments, err := c.instruments.List(ctx, contracts.InstrumentFilter{
		IDs:        ids,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}
	result.Total = len(instruments)

	today := dates.Day(time.Now().UTC())

	c.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID,
		"count":   len(instruments),
		"date":    dates.Format(today),
		"force":   force,
		"workers": c.cfg.Workers,
	}).Info("Starting batch")

	outcomeCh := make(chan contracts.FetchOutcome, len(instruments))

	var g errgroup.Group
	g.SetLimit(c.cfg.Workers)
	for _, inst := range instruments {
		inst := inst
		if ctx.Err() != nil {
			// Dispatch stopped; everything not yet started is canceled.
			outcomeCh <- contracts.FetchOutcome{
				InstrumentID: inst.ID,
				Code:         inst.Code,
				ErrorKind:    contracts.KindCanceled,
				Err:          ctx.Err(),
			}
			continue
		}
		g.Go(func() error {
			outcome := c.fetchOne(ctx, inst, today, force)
			outcomeCh <- outcome
			if c.progress != nil {
				c.progress(outcome)
			}
			return nil
		})
	}
	_ = g.Wait()
	close(outcomeCh)

	for outcome := range outcomeCh {
		result.Outcomes = append(result.Outcomes, outcome)
		switch {
		case outcome.Skipped:
			result.Skipped++
		case outcome.ErrorKind != contracts.KindNone:
			result.Failed++
		default:
			result.Succeeded++
		}
	}
	// Channel drain order is nondeterministic; keep the report stable.
	sort.Slice(result.Outcomes, func(i, j int) bool {
		return result.Outcomes[i].InstrumentID < result.Outcomes[j].InstrumentID
	})
	result.Finished = time.Now().UTC()

	c.logger.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
		"kinds":     kindCounts(result.Outcomes),
		"elapsed":   result.Finished.Sub(result.Started).String(),
	}).Info("Batch completed")

	return result, nil
}

// fetchOne handles a single instrument end to end. In-flight work runs
// on a detached context with its own timeout so a batch cancel does not
// tear down a fetch that already left the building.
func (c *Collector) fetchOne(ctx context.Context, inst *contracts.Instrument, today time.Time, force bool) contracts.FetchOutcome {
	outcome := contracts.FetchOutcome{InstrumentID: inst.ID, Code: inst.Code}

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.FetchTimeout)
	defer cancel()

	if !force {
		exists, err := c.records.HasRecord(fetchCtx, inst.ID, today)
		if err != nil {
			outcome.ErrorKind = contracts.KindStorage
			outcome.Err = err
			return outcome
		}
		if exists {
			outcome.Skipped = true
			return outcome
		}
	}

	start := c.rangeStart(inst)
	raw, provider, err := c.router.Route(fetchCtx, inst.Code, start, today)
	outcome.Provider = provider
	if err != nil {
		outcome.ErrorKind = contracts.KindOf(err)
		outcome.Err = err
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"instrument_id": inst.ID,
			"code":          inst.Code,
			"kind":          outcome.ErrorKind,
		}).Error("Fetch failed")
		return outcome
	}

	cls, err := c.router.Class(inst.Code)
	if err != nil {
		outcome.ErrorKind = contracts.KindOf(err)
		outcome.Err = err
		return outcome
	}

	recs, err := records.Normalize(raw, inst.ID, cls)
	if err != nil {
		outcome.ErrorKind = contracts.KindOf(err)
		outcome.Err = err
		return outcome
	}
	outcome.Records = len(recs)
	if len(recs) == 0 {
		// No trading days in range: success with nothing to write.
		return outcome
	}

	ptrs := make([]*contracts.DailyRecord, len(recs))
	for i := range recs {
		ptrs[i] = &recs[i]
	}
	if err := c.records.UpsertBatch(fetchCtx, ptrs); err != nil {
		outcome.ErrorKind = contracts.KindStorage
		outcome.Err = err
		c.logger.WithError(err).WithField("instrument_id", inst.ID).Error("Failed to save records")
		return outcome
	}

	if err := c.maybeSetBaseline(fetchCtx, inst, recs); err != nil {
		c.logger.WithError(err).WithField("instrument_id", inst.ID).Warn("Failed to set baseline price")
	}

	c.logger.WithFields(map[string]interface{}{
		"instrument_id": inst.ID,
		"code":          inst.Code,
		"provider":      provider,
		"count":         len(recs),
	}).Debug("Fetched instrument")
	return outcome
}

// rangeStart picks where this instrument's fetch window opens: the
// later of its tracking start and the system baseline date, so the
// baseline row is always covered.
func (c *Collector) rangeStart(inst *contracts.Instrument) time.Time {
	start := dates.Day(inst.StartDate)
	baseline := dates.Day(c.cfg.BaselineDate)
	if start.After(baseline) {
		return start
	}
	return baseline
}

// maybeSetBaseline records the baseline price the first time a record
// on or after the baseline date shows up. Markets close on the baseline
// date sometimes, so the first record after it backfills.
func (c *Collector) maybeSetBaseline(ctx context.Context, inst *contracts.Instrument, recs []contracts.DailyRecord) error {
	if inst.BaselinePrice != nil {
		return nil
	}

	baseline := dates.Day(c.cfg.BaselineDate)
	var pick *contracts.DailyRecord
	for i := range recs {
		if recs[i].Date.Before(baseline) {
			continue
		}
		if pick == nil || recs[i].Date.Before(pick.Date) {
			pick = &recs[i]
		}
	}
	if pick == nil {
		return nil
	}

	if err := c.instruments.SetBaselinePrice(ctx, inst.ID, pick.Close, pick.Date); err != nil {
		return err
	}
	c.logger.WithFields(map[string]interface{}{
		"instrument_id": inst.ID,
		"price":         pick.Close,
		"date":          dates.Format(pick.Date),
	}).Info("Baseline price set")
	return nil
}

func kindCounts(outcomes []contracts.FetchOutcome) map[contracts.ErrorKind]int {
	counts := make(map[contracts.ErrorKind]int)
	for _, o := range outcomes {
		if o.ErrorKind != contracts.KindNone {
			counts[o.ErrorKind]++
		}
	}
	return counts
}
