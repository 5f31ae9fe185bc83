package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonhee/tigerboard/internal/contracts"
)

// SnapshotRepository implements contracts.SnapshotRepository.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates the repository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Replace swaps the full snapshot set for a (date, rank type) in one
// transaction, so readers never observe a half-written board.
func (r *SnapshotRepository) Replace(ctx context.Context, date time.Time, rankType contracts.RankType, snapshots []*contracts.RankingSnapshot) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	deleteQuery := `
		DELETE FROM ranking_snapshots
		WHERE snapshot_date = $1 AND rank_type = $2`
	if _, err := tx.Exec(ctx, deleteQuery, date, rankType); err != nil {
		return err
	}

	insertQuery := `
		INSERT INTO ranking_snapshots (
			snapshot_date, instrument_id, user_id, rank_type, rank, change_rate, is_core
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, s := range snapshots {
		if _, err := tx.Exec(ctx, insertQuery,
			s.Date, s.InstrumentID, s.UserID, s.RankType, s.Rank, s.ChangeRate, s.IsCore,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// List reads one board ordered by rank.
func (r *SnapshotRepository) List(ctx context.Context, date time.Time, rankType contracts.RankType) ([]*contracts.RankingSnapshot, error) {
	query := `
		SELECT snapshot_date, instrument_id, user_id, rank_type, rank, change_rate, is_core
		FROM ranking_snapshots
		WHERE snapshot_date = $1 AND rank_type = $2
		ORDER BY rank ASC`

	rows, err := r.pool.Query(ctx, query, date, rankType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*contracts.RankingSnapshot
	for rows.Next() {
		var s contracts.RankingSnapshot
		if err := rows.Scan(
			&s.Date, &s.InstrumentID, &s.UserID, &s.RankType, &s.Rank, &s.ChangeRate, &s.IsCore,
		); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, &s)
	}
	return snapshots, rows.Err()
}
