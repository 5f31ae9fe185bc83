package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/internal/dates"
	"github.com/wonhee/tigerboard/internal/ranking"
	"github.com/wonhee/tigerboard/pkg/logger"
	"github.com/wonhee/tigerboard/pkg/redis"
)

// RankingHandler serves the leaderboards.
type RankingHandler struct {
	engine *ranking.Engine
	cache  *redis.Cache
	logger *logger.Logger
}

// NewRankingHandler creates the handler. cache may be nil-op when
// Redis is disabled.
func NewRankingHandler(engine *ranking.Engine, cache *redis.Cache, log *logger.Logger) *RankingHandler {
	return &RankingHandler{engine: engine, cache: cache, logger: log}
}

// GetAssets returns the asset board.
// GET /api/ranking/assets?date=YYYY-MM-DD
func (h *RankingHandler) GetAssets(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, contracts.RankTypeAsset, h.engine.GetAssetRanking)
}

// GetUsers returns the user board.
// GET /api/ranking/users?date=YYYY-MM-DD
func (h *RankingHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, contracts.RankTypeUser, h.engine.GetUserRanking)
}

func (h *RankingHandler) serve(
	w http.ResponseWriter,
	r *http.Request,
	rankType contracts.RankType,
	load func(ctx context.Context, date time.Time) ([]*contracts.RankingSnapshot, error),
) {
	ctx := r.Context()

	date, err := h.requestDate(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	key := redis.RankingKey(dates.Format(date), string(rankType))
	var cached []*contracts.RankingSnapshot
	if hit, _ := h.cache.Get(ctx, key, &cached); hit {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	snapshots, err := load(ctx, date)
	if err != nil {
		h.logger.WithError(err).WithField("rank_type", rankType).Error("Failed to load ranking")
		respondError(w, http.StatusInternalServerError, "failed to load ranking")
		return
	}
	if snapshots == nil {
		snapshots = []*contracts.RankingSnapshot{}
	}

	if err := h.cache.Set(ctx, key, snapshots, redis.TTLRanking); err != nil {
		h.logger.WithError(err).Warn("Failed to cache ranking")
	}
	respondJSON(w, http.StatusOK, snapshots)
}

// requestDate parses the date parameter, defaulting to today.
func (h *RankingHandler) requestDate(r *http.Request) (time.Time, error) {
	param := r.URL.Query().Get("date")
	if param == "" {
		return dates.Day(time.Now().UTC()), nil
	}

	canonical, err := dates.Normalize(param)
	if err != nil {
		return time.Time{}, err
	}
	return dates.Parse(canonical)
}
