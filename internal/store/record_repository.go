package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonhee/tigerboard/internal/contracts"
)

// RecordRepository implements contracts.RecordRepository.
type RecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository creates the repository.
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

const upsertRecordQuery = `
	INSERT INTO daily_records (
		instrument_id, trade_date, open_price, close_price, high_price, low_price,
		volume, turnover, amplitude, change_pct, change_amount, turnover_rate,
		pe_ratio, pb_ratio, market_cap, eps_forecast
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (instrument_id, trade_date) DO UPDATE SET
		open_price = EXCLUDED.open_price,
		close_price = EXCLUDED.close_price,
		high_price = EXCLUDED.high_price,
		low_price = EXCLUDED.low_price,
		volume = EXCLUDED.volume,
		turnover = EXCLUDED.turnover,
		amplitude = EXCLUDED.amplitude,
		change_pct = EXCLUDED.change_pct,
		change_amount = EXCLUDED.change_amount,
		turnover_rate = EXCLUDED.turnover_rate,
		pe_ratio = EXCLUDED.pe_ratio,
		pb_ratio = EXCLUDED.pb_ratio,
		market_cap = EXCLUDED.market_cap,
		eps_forecast = EXCLUDED.eps_forecast`

func recordArgs(rec *contracts.DailyRecord) []interface{} {
	return []interface{}{
		rec.InstrumentID, rec.Date, rec.Open, rec.Close, rec.High, rec.Low,
		rec.Volume, rec.Turnover, rec.Amplitude, rec.ChangePct, rec.ChangeAmount, rec.TurnoverRate,
		rec.PERatio, rec.PBRatio, rec.MarketCap, rec.EPSForecast,
	}
}

// Upsert writes one record, overwriting any existing row for the same
// (instrument, date).
func (r *RecordRepository) Upsert(ctx context.Context, rec *contracts.DailyRecord) error {
	_, err := r.pool.Exec(ctx, upsertRecordQuery, recordArgs(rec)...)
	return err
}

// UpsertBatch writes a record set in one round trip.
func (r *RecordRepository) UpsertBatch(ctx context.Context, recs []*contracts.DailyRecord) error {
	if len(recs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range recs {
		batch.Queue(upsertRecordQuery, recordArgs(rec)...)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range recs {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetByInstrumentAndDate returns the record for a day, or nil when the
// instrument has no row for it.
func (r *RecordRepository) GetByInstrumentAndDate(ctx context.Context, instrumentID int64, date time.Time) (*contracts.DailyRecord, error) {
	query := `
		SELECT instrument_id, trade_date, open_price, close_price, high_price, low_price,
		       volume, turnover, amplitude, change_pct, change_amount, turnover_rate,
		       pe_ratio, pb_ratio, market_cap, eps_forecast
		FROM daily_records
		WHERE instrument_id = $1 AND trade_date = $2`

	var rec contracts.DailyRecord
	err := r.pool.QueryRow(ctx, query, instrumentID, date).Scan(
		&rec.InstrumentID, &rec.Date, &rec.Open, &rec.Close, &rec.High, &rec.Low,
		&rec.Volume, &rec.Turnover, &rec.Amplitude, &rec.ChangePct, &rec.ChangeAmount, &rec.TurnoverRate,
		&rec.PERatio, &rec.PBRatio, &rec.MarketCap, &rec.EPSForecast,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// HasRecord reports whether a row exists for (instrument, date).
func (r *RecordRepository) HasRecord(ctx context.Context, instrumentID int64, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM daily_records
			WHERE instrument_id = $1 AND trade_date = $2
		)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, instrumentID, date).Scan(&exists)
	return exists, err
}

// DailyReturns returns up to windowDays most recent close-to-close
// percent returns, oldest first. The first session of a series has no
// prior close and contributes no return.
func (r *RecordRepository) DailyReturns(ctx context.Context, instrumentID int64, windowDays int) ([]float64, error) {
	query := `
		SELECT ret FROM (
			SELECT trade_date,
			       (close_price - LAG(close_price) OVER (ORDER BY trade_date))
			       / NULLIF(LAG(close_price) OVER (ORDER BY trade_date), 0) * 100 AS ret
			FROM daily_records
			WHERE instrument_id = $1
		) t
		WHERE ret IS NOT NULL
		ORDER BY trade_date DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, instrumentID, windowDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var returns []float64
	for rows.Next() {
		var ret float64
		if err := rows.Scan(&ret); err != nil {
			return nil, err
		}
		returns = append(returns, ret)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query orders newest first to apply the window; flip to oldest
	// first for the caller.
	for i, j := 0, len(returns)-1; i < j; i, j = i+1, j-1 {
		returns[i], returns[j] = returns[j], returns[i]
	}
	return returns, nil
}
