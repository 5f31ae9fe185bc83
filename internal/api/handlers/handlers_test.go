package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/internal/ranking"
	"github.com/wonhee/tigerboard/internal/stability"
	"github.com/wonhee/tigerboard/pkg/config"
	"github.com/wonhee/tigerboard/pkg/logger"
	"github.com/wonhee/tigerboard/pkg/redis"
)

type fakeInstrumentRepo struct{}

func (fakeInstrumentRepo) Get(ctx context.Context, id int64) (*contracts.Instrument, error) {
	return nil, nil
}

func (fakeInstrumentRepo) List(ctx context.Context, filter contracts.InstrumentFilter) ([]*contracts.Instrument, error) {
	return nil, nil
}

func (fakeInstrumentRepo) SetBaselinePrice(ctx context.Context, id int64, price float64, date time.Time) error {
	return nil
}

type fakeRecordRepo struct {
	returns []float64
}

func (fakeRecordRepo) Upsert(ctx context.Context, rec *contracts.DailyRecord) error { return nil }
func (fakeRecordRepo) UpsertBatch(ctx context.Context, recs []*contracts.DailyRecord) error {
	return nil
}

func (fakeRecordRepo) GetByInstrumentAndDate(ctx context.Context, instrumentID int64, date time.Time) (*contracts.DailyRecord, error) {
	return nil, nil
}

func (fakeRecordRepo) HasRecord(ctx context.Context, instrumentID int64, date time.Time) (bool, error) {
	return false, nil
}

func (r fakeRecordRepo) DailyReturns(ctx context.Context, instrumentID int64, windowDays int) ([]float64, error) {
	return r.returns, nil
}

type fakeSnapshotRepo struct {
	boards map[contracts.RankType][]*contracts.RankingSnapshot
}

func (r *fakeSnapshotRepo) Replace(ctx context.Context, date time.Time, rankType contracts.RankType, snapshots []*contracts.RankingSnapshot) error {
	return nil
}

func (r *fakeSnapshotRepo) List(ctx context.Context, date time.Time, rankType contracts.RankType) ([]*contracts.RankingSnapshot, error) {
	return r.boards[rankType], nil
}

func noopCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)
	return redis.NewCache(client, "test")
}

func TestRankingHandlerGetAssets(t *testing.T) {
	snapshots := &fakeSnapshotRepo{boards: map[contracts.RankType][]*contracts.RankingSnapshot{
		contracts.RankTypeAsset: {
			{InstrumentID: 7, Rank: 1, ChangeRate: 5.0, RankType: contracts.RankTypeAsset},
			{InstrumentID: 10, Rank: 2, ChangeRate: 5.0, RankType: contracts.RankTypeAsset},
		},
	}}
	engine := ranking.NewEngine(fakeInstrumentRepo{}, fakeRecordRepo{}, snapshots, logger.NewNop())
	h := NewRankingHandler(engine, noopCache(t), logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/ranking/assets?date=2026-02-02", nil)
	rec := httptest.NewRecorder()
	h.GetAssets(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var board []*contracts.RankingSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board, 2)
	assert.Equal(t, int64(7), board[0].InstrumentID)
	assert.Equal(t, 1, board[0].Rank)
}

func TestRankingHandlerEmptyBoard(t *testing.T) {
	engine := ranking.NewEngine(fakeInstrumentRepo{}, fakeRecordRepo{}, &fakeSnapshotRepo{}, logger.NewNop())
	h := NewRankingHandler(engine, noopCache(t), logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/ranking/users?date=2026-02-02", nil)
	rec := httptest.NewRecorder()
	h.GetUsers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// An empty board is [], never null.
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestRankingHandlerBadDate(t *testing.T) {
	engine := ranking.NewEngine(fakeInstrumentRepo{}, fakeRecordRepo{}, &fakeSnapshotRepo{}, logger.NewNop())
	h := NewRankingHandler(engine, noopCache(t), logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/ranking/assets?date=02-02-2026", nil)
	rec := httptest.NewRecorder()
	h.GetAssets(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "YYYY-MM-DD")
}

func TestStabilityHandlerGet(t *testing.T) {
	svc := stability.NewService(fakeRecordRepo{returns: []float64{0.5, -0.5, 1.0}}, logger.NewNop())
	h := NewStabilityHandler(svc, noopCache(t), logger.NewNop())

	r := mux.NewRouter()
	r.HandleFunc("/api/stability/{id:[0-9]+}", h.Get).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, "/api/stability/42", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result stability.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 3, result.Samples)
	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 100.0)
}
