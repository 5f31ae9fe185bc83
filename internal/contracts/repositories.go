package contracts

import (
	"context"
	"time"
)

// Repository interfaces are defined here; internal/store carries the
// PostgreSQL implementations.

// InstrumentFilter narrows List results. Zero value lists everything
// that is actively tracked.
type InstrumentFilter struct {
	IDs        []int64
	UserID     int64
	ActiveOnly bool
}

// InstrumentRepository reads user-registered instruments. The pipeline
// writes exactly one field: the baseline, once known.
type InstrumentRepository interface {
	Get(ctx context.Context, id int64) (*Instrument, error)
	List(ctx context.Context, filter InstrumentFilter) ([]*Instrument, error)
	SetBaselinePrice(ctx context.Context, id int64, price float64, date time.Time) error
}

// RecordRepository manages canonical daily records. Upsert is
// idempotent keyed on (instrument, date).
type RecordRepository interface {
	Upsert(ctx context.Context, rec *DailyRecord) error
	UpsertBatch(ctx context.Context, recs []*DailyRecord) error
	GetByInstrumentAndDate(ctx context.Context, instrumentID int64, date time.Time) (*DailyRecord, error)
	HasRecord(ctx context.Context, instrumentID int64, date time.Time) (bool, error)
	// DailyReturns returns up to windowDays most recent close-to-close
	// percent returns, oldest first.
	DailyReturns(ctx context.Context, instrumentID int64, windowDays int) ([]float64, error)
}

// SnapshotRepository persists leaderboard rows. Replace swaps the full
// set for a (date, rank type) in one transaction.
type SnapshotRepository interface {
	Replace(ctx context.Context, date time.Time, rankType RankType, snapshots []*RankingSnapshot) error
	List(ctx context.Context, date time.Time, rankType RankType) ([]*RankingSnapshot, error)
}

// Provider is the uniform adapter contract over one upstream source.
// Available reflects a one-time capability check done at construction,
// not a per-call branch.
type Provider interface {
	Kind() ProviderKind
	Available() bool
	Fetch(ctx context.Context, symbol string, class InstrumentClass, start, end time.Time) ([]RawRecord, error)
}
