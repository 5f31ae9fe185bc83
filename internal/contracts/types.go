package contracts

import (
	"time"

	"github.com/google/uuid"
)

// InstrumentClass determines which provider chain serves an instrument.
type InstrumentClass string

const (
	ClassDomestic      InstrumentClass = "domestic"      // A-share equities and funds
	ClassFutures       InstrumentClass = "futures"       // CFFEX index futures
	ClassInternational InstrumentClass = "international" // US/overseas equities
)

// ProviderKind identifies an upstream market data source.
type ProviderKind string

const (
	ProviderEastmoney ProviderKind = "eastmoney"
	ProviderYahoo     ProviderKind = "yahoo"
	ProviderSina      ProviderKind = "sina"
)

// Instrument is a user-registered tracking target. The pipeline only
// reads it; ownership and mutation belong to the registering side.
type Instrument struct {
	ID            int64
	UserID        int64
	Code          string
	Name          string
	Market        string
	Class         InstrumentClass
	BaselinePrice *float64 // nil until the first fetch on/after the baseline date
	BaselineDate  *time.Time
	StartDate     time.Time
	EndDate       *time.Time
	IsCore        bool
}

// DailyRecord is the canonical per-(instrument, date) row. Optional
// fields are pointers: nil means the provider did not report the value,
// zero is a legitimate price/volume.
type DailyRecord struct {
	InstrumentID int64
	Date         time.Time
	Open         *float64
	Close        float64
	High         *float64
	Low          *float64
	Volume       *float64
	Turnover     *float64
	Amplitude    *float64
	ChangePct    *float64
	ChangeAmount *float64
	TurnoverRate *float64

	// Financial fields: equities only, futures rows stay nil.
	PERatio     *float64
	PBRatio     *float64
	MarketCap   *float64
	EPSForecast *float64
}

// RawRecord is what a provider adapter hands to the record normalizer:
// canonical date string plus whatever columns the provider reported.
type RawRecord struct {
	Date         string // canonical YYYY-MM-DD
	Open         *float64
	Close        float64
	High         *float64
	Low          *float64
	Volume       *float64
	Turnover     *float64
	Amplitude    *float64
	ChangePct    *float64
	ChangeAmount *float64
	TurnoverRate *float64
	PERatio      *float64
	PBRatio      *float64
	MarketCap    *float64
	EPSForecast  *float64
}

// RankType distinguishes asset leaderboards from user leaderboards.
type RankType string

const (
	RankTypeAsset RankType = "asset"
	RankTypeUser  RankType = "user"
)

// RankingSnapshot is one leaderboard row for a date. Ranks for a given
// (date, rank type) are contiguous from 1, ordered by change rate
// descending.
type RankingSnapshot struct {
	Date         time.Time `json:"date"`
	InstrumentID int64     `json:"instrument_id"`
	UserID       int64     `json:"user_id"`
	RankType     RankType  `json:"rank_type"`
	Rank         int       `json:"rank"`
	ChangeRate   float64   `json:"change_rate"`
	IsCore       bool      `json:"is_core"`
}

// FetchOutcome is the per-instrument result of one batch pass. It is
// never persisted; it only feeds the batch summary and progress feed.
type FetchOutcome struct {
	InstrumentID int64        `json:"instrument_id"`
	Code         string       `json:"code"`
	Provider     ProviderKind `json:"provider,omitempty"`
	Records      int          `json:"records"`
	Skipped      bool         `json:"skipped"`
	ErrorKind    ErrorKind    `json:"error_kind,omitempty"`
	Err          error        `json:"-"`
}

// BatchResult is the full accounting of one orchestrator run. A batch
// never reduces to a bare success/failure boolean.
type BatchResult struct {
	RunID     uuid.UUID      `json:"run_id"`
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Started   time.Time      `json:"started"`
	Finished  time.Time      `json:"finished"`
	Outcomes  []FetchOutcome `json:"outcomes"`
}
