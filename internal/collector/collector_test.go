package collector

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/internal/dates"
	"github.com/wonhee/tigerboard/internal/router"
	"github.com/wonhee/tigerboard/pkg/logger"
)

// fakeProvider answers per provider-specific symbol.
type fakeProvider struct {
	kind    contracts.ProviderKind
	records map[string][]contracts.RawRecord
	errs    map[string]error
}

func (f *fakeProvider) Kind() contracts.ProviderKind { return f.kind }
func (f *fakeProvider) Available() bool              { return true }

func (f *fakeProvider) Fetch(ctx context.Context, symbol string, class contracts.InstrumentClass, start, end time.Time) ([]contracts.RawRecord, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.records[symbol], nil
}

type fakeInstrumentRepo struct {
	mu          sync.Mutex
	instruments []*contracts.Instrument
	baselines   map[int64]float64
}

func (r *fakeInstrumentRepo) Get(ctx context.Context, id int64) (*contracts.Instrument, error) {
	for _, inst := range r.instruments {
		if inst.ID == id {
			return inst, nil
		}
	}
	return nil, fmt.Errorf("instrument %d not found", id)
}

func (r *fakeInstrumentRepo) List(ctx context.Context, filter contracts.InstrumentFilter) ([]*contracts.Instrument, error) {
	if len(filter.IDs) == 0 {
		return r.instruments, nil
	}
	var out []*contracts.Instrument
	for _, inst := range r.instruments {
		for _, id := range filter.IDs {
			if inst.ID == id {
				out = append(out, inst)
			}
		}
	}
	return out, nil
}

func (r *fakeInstrumentRepo) SetBaselinePrice(ctx context.Context, id int64, price float64, date time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.baselines == nil {
		r.baselines = make(map[int64]float64)
	}
	r.baselines[id] = price
	return nil
}

type fakeRecordRepo struct {
	mu       sync.Mutex
	existing map[string]bool // instrumentID:date
	upserted []*contracts.DailyRecord
}

func key(id int64, date time.Time) string {
	return fmt.Sprintf("%d:%s", id, dates.Format(date))
}

func (r *fakeRecordRepo) Upsert(ctx context.Context, rec *contracts.DailyRecord) error {
	return r.UpsertBatch(ctx, []*contracts.DailyRecord{rec})
}

func (r *fakeRecordRepo) UpsertBatch(ctx context.Context, recs []*contracts.DailyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existing == nil {
		r.existing = make(map[string]bool)
	}
	for _, rec := range recs {
		r.upserted = append(r.upserted, rec)
		r.existing[key(rec.InstrumentID, rec.Date)] = true
	}
	return nil
}

func (r *fakeRecordRepo) GetByInstrumentAndDate(ctx context.Context, instrumentID int64, date time.Time) (*contracts.DailyRecord, error) {
	return nil, nil
}

func (r *fakeRecordRepo) HasRecord(ctx context.Context, instrumentID int64, date time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.existing[key(instrumentID, date)], nil
}

func (r *fakeRecordRepo) DailyReturns(ctx context.Context, instrumentID int64, windowDays int) ([]float64, error) {
	return nil, nil
}

func (r *fakeRecordRepo) upsertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.upserted)
}

var baseline = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func instrument(id int64, code string) *contracts.Instrument {
	return &contracts.Instrument{
		ID: id, UserID: id, Code: code,
		Class:     contracts.ClassDomestic,
		StartDate: baseline,
	}
}

func todayRecord() []contracts.RawRecord {
	return []contracts.RawRecord{{Date: dates.Format(time.Now().UTC()), Close: 10}}
}

func newCollector(provider contracts.Provider, instruments *fakeInstrumentRepo, records *fakeRecordRepo) *Collector {
	log := logger.NewNop()
	rt := router.New(log, provider)
	return New(rt, instruments, records, Config{
		Workers:      2,
		FetchTimeout: 5 * time.Second,
		BaselineDate: baseline,
	}, log)
}

func TestRunBatchAccounting(t *testing.T) {
	instruments := &fakeInstrumentRepo{instruments: []*contracts.Instrument{
		instrument(1, "600519"),
		instrument(2, "000001"),
		instrument(3, "300857"),
	}}
	records := &fakeRecordRepo{existing: map[string]bool{
		key(3, dates.Day(time.Now().UTC())): true, // already fetched today
	}}
	provider := &fakeProvider{
		kind: contracts.ProviderEastmoney,
		records: map[string][]contracts.RawRecord{
			"1.600519": todayRecord(),
		},
		errs: map[string]error{
			"0.000001": fmt.Errorf("%w: status 429", contracts.ErrRateLimited),
		},
	}

	col := newCollector(provider, instruments, records)
	result, err := col.RunBatch(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}

	if result.Total != 3 || result.Succeeded != 1 || result.Failed != 1 || result.Skipped != 1 {
		t.Errorf("accounting = {total:%d succeeded:%d failed:%d skipped:%d}, want {3,1,1,1}",
			result.Total, result.Succeeded, result.Failed, result.Skipped)
	}
	if result.Total != result.Succeeded+result.Failed+result.Skipped {
		t.Error("every instrument must land in exactly one category")
	}
	if result.RunID == uuid.Nil {
		t.Error("RunID must be set")
	}

	// Outcomes are ordered and carry the error kind of the failure.
	if len(result.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(result.Outcomes))
	}
	for i, o := range result.Outcomes {
		if o.InstrumentID != int64(i+1) {
			t.Errorf("outcome %d is instrument %d, want %d", i, o.InstrumentID, i+1)
		}
	}
	if result.Outcomes[1].ErrorKind != contracts.KindAllProvidersFailed {
		t.Errorf("failed outcome kind = %s, want all_providers_failed", result.Outcomes[1].ErrorKind)
	}
	if !result.Outcomes[2].Skipped {
		t.Error("instrument 3 should be skipped")
	}
}

func TestRunBatchIdempotence(t *testing.T) {
	instruments := &fakeInstrumentRepo{instruments: []*contracts.Instrument{instrument(1, "600519")}}
	records := &fakeRecordRepo{}
	provider := &fakeProvider{
		kind:    contracts.ProviderEastmoney,
		records: map[string][]contracts.RawRecord{"1.600519": todayRecord()},
	}

	col := newCollector(provider, instruments, records)

	first, err := col.RunBatch(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("first RunBatch() error = %v", err)
	}
	if first.Succeeded != 1 {
		t.Fatalf("first run succeeded = %d, want 1", first.Succeeded)
	}
	writesAfterFirst := records.upsertCount()

	// Second run with force=false writes nothing.
	second, err := col.RunBatch(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("second RunBatch() error = %v", err)
	}
	if second.Skipped != 1 {
		t.Errorf("second run skipped = %d, want 1", second.Skipped)
	}
	if records.upsertCount() != writesAfterFirst {
		t.Error("second run with force=false must not write")
	}

	// Force re-fetches and overwrites.
	third, err := col.RunBatch(context.Background(), nil, true)
	if err != nil {
		t.Fatalf("forced RunBatch() error = %v", err)
	}
	if third.Succeeded != 1 {
		t.Errorf("forced run succeeded = %d, want 1", third.Succeeded)
	}
	if records.upsertCount() <= writesAfterFirst {
		t.Error("forced run must write again")
	}
}

func TestRunBatchSetsBaseline(t *testing.T) {
	instruments := &fakeInstrumentRepo{instruments: []*contracts.Instrument{instrument(1, "600519")}}
	records := &fakeRecordRepo{}

	// Baseline day itself was a holiday: the first record after it
	// backfills the baseline.
	provider := &fakeProvider{
		kind: contracts.ProviderEastmoney,
		records: map[string][]contracts.RawRecord{
			"1.600519": {
				{Date: "2026-01-06", Close: 11.5},
				{Date: "2026-01-07", Close: 12.0},
				{Date: dates.Format(time.Now().UTC()), Close: 13.0},
			},
		},
	}

	col := newCollector(provider, instruments, records)
	if _, err := col.RunBatch(context.Background(), nil, false); err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}

	if got := instruments.baselines[1]; got != 11.5 {
		t.Errorf("baseline = %v, want 11.5 (first record on/after baseline date)", got)
	}
}

func TestRunBatchKeepsExistingBaseline(t *testing.T) {
	existing := 9.9
	inst := instrument(1, "600519")
	inst.BaselinePrice = &existing

	instruments := &fakeInstrumentRepo{instruments: []*contracts.Instrument{inst}}
	records := &fakeRecordRepo{}
	provider := &fakeProvider{
		kind:    contracts.ProviderEastmoney,
		records: map[string][]contracts.RawRecord{"1.600519": todayRecord()},
	}

	col := newCollector(provider, instruments, records)
	if _, err := col.RunBatch(context.Background(), nil, false); err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if _, set := instruments.baselines[1]; set {
		t.Error("an already-set baseline must not be overwritten")
	}
}

func TestRunBatchCancellation(t *testing.T) {
	instruments := &fakeInstrumentRepo{instruments: []*contracts.Instrument{
		instrument(1, "600519"),
		instrument(2, "000001"),
	}}
	records := &fakeRecordRepo{}
	provider := &fakeProvider{
		kind: contracts.ProviderEastmoney,
		records: map[string][]contracts.RawRecord{
			"1.600519": todayRecord(),
			"0.000001": todayRecord(),
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // canceled before dispatch

	col := newCollector(provider, instruments, records)
	result, err := col.RunBatch(ctx, nil, false)
	if err != nil {
		t.Fatalf("RunBatch() error = %v; a canceled run must still return a valid result", err)
	}

	if result.Total != 2 {
		t.Errorf("total = %d, want 2", result.Total)
	}
	if result.Total != result.Succeeded+result.Failed+result.Skipped {
		t.Error("canceled run must still account for every instrument")
	}
	for _, o := range result.Outcomes {
		if o.ErrorKind != contracts.KindCanceled {
			t.Errorf("outcome for %d kind = %s, want canceled", o.InstrumentID, o.ErrorKind)
		}
	}
}

func TestRunBatchProgressFeed(t *testing.T) {
	instruments := &fakeInstrumentRepo{instruments: []*contracts.Instrument{
		instrument(1, "600519"),
		instrument(2, "000001"),
	}}
	records := &fakeRecordRepo{}
	provider := &fakeProvider{
		kind: contracts.ProviderEastmoney,
		records: map[string][]contracts.RawRecord{
			"1.600519": todayRecord(),
			"0.000001": todayRecord(),
		},
	}

	var mu sync.Mutex
	var seen []contracts.FetchOutcome

	col := newCollector(provider, instruments, records)
	col.SetProgress(func(o contracts.FetchOutcome) {
		mu.Lock()
		seen = append(seen, o)
		mu.Unlock()
	})

	if _, err := col.RunBatch(context.Background(), nil, false); err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if len(seen) != 2 {
		t.Errorf("progress feed saw %d outcomes, want 2", len(seen))
	}
}
