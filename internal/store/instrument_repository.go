// Package store carries the PostgreSQL implementations of the
// contracts repositories.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonhee/tigerboard/internal/contracts"
)

// InstrumentRepository implements contracts.InstrumentRepository.
type InstrumentRepository struct {
	pool *pgxpool.Pool
}

// NewInstrumentRepository creates the repository.
func NewInstrumentRepository(pool *pgxpool.Pool) *InstrumentRepository {
	return &InstrumentRepository{pool: pool}
}

const instrumentColumns = `
	id, user_id, code, name, market, class,
	baseline_price, baseline_date, start_date, end_date, is_core`

// Get retrieves one instrument; a missing id is an error, callers pass
// ids they already hold.
func (r *InstrumentRepository) Get(ctx context.Context, id int64) (*contracts.Instrument, error) {
	query := `SELECT` + instrumentColumns + `
		FROM instruments
		WHERE id = $1`

	var inst contracts.Instrument
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&inst.ID, &inst.UserID, &inst.Code, &inst.Name, &inst.Market, &inst.Class,
		&inst.BaselinePrice, &inst.BaselineDate, &inst.StartDate, &inst.EndDate, &inst.IsCore,
	)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// List retrieves instruments matching the filter, ordered by id.
func (r *InstrumentRepository) List(ctx context.Context, filter contracts.InstrumentFilter) ([]*contracts.Instrument, error) {
	query := `SELECT` + instrumentColumns + `
		FROM instruments
		WHERE ($1::bigint[] IS NULL OR id = ANY($1))
		  AND ($2::bigint = 0 OR user_id = $2)
		  AND (NOT $3::boolean OR end_date IS NULL OR end_date >= CURRENT_DATE)
		ORDER BY id ASC`

	var ids []int64
	if len(filter.IDs) > 0 {
		ids = filter.IDs
	}

	rows, err := r.pool.Query(ctx, query, ids, filter.UserID, filter.ActiveOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instruments []*contracts.Instrument
	for rows.Next() {
		var inst contracts.Instrument
		if err := rows.Scan(
			&inst.ID, &inst.UserID, &inst.Code, &inst.Name, &inst.Market, &inst.Class,
			&inst.BaselinePrice, &inst.BaselineDate, &inst.StartDate, &inst.EndDate, &inst.IsCore,
		); err != nil {
			return nil, err
		}
		instruments = append(instruments, &inst)
	}
	return instruments, rows.Err()
}

// SetBaselinePrice records the baseline once. The WHERE guard keeps a
// concurrent batch from overwriting an already-set baseline.
func (r *InstrumentRepository) SetBaselinePrice(ctx context.Context, id int64, price float64, date time.Time) error {
	query := `
		UPDATE instruments
		SET baseline_price = $2, baseline_date = $3
		WHERE id = $1 AND baseline_price IS NULL`

	_, err := r.pool.Exec(ctx, query, id, price, date)
	return err
}
