package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonhee/tigerboard/internal/stability"
	"github.com/wonhee/tigerboard/pkg/logger"
	"github.com/wonhee/tigerboard/pkg/redis"
)

// StabilityHandler serves per-instrument stability readouts.
type StabilityHandler struct {
	service *stability.Service
	cache   *redis.Cache
	logger  *logger.Logger
}

// NewStabilityHandler creates the handler.
func NewStabilityHandler(svc *stability.Service, cache *redis.Cache, log *logger.Logger) *StabilityHandler {
	return &StabilityHandler{service: svc, cache: cache, logger: log}
}

// Get returns the stability score, annualized volatility and return
// histogram for one instrument.
// GET /api/stability/{id}
func (h *StabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid instrument id")
		return
	}

	key := redis.StabilityKey(id)
	var cached stability.Result
	if hit, _ := h.cache.Get(ctx, key, &cached); hit {
		respondJSON(w, http.StatusOK, &cached)
		return
	}

	result, err := h.service.Get(ctx, id)
	if err != nil {
		h.logger.WithError(err).WithField("instrument_id", id).Error("Failed to compute stability")
		respondError(w, http.StatusInternalServerError, "failed to compute stability")
		return
	}

	if err := h.cache.Set(ctx, key, result, redis.TTLStability); err != nil {
		h.logger.WithError(err).Warn("Failed to cache stability")
	}
	respondJSON(w, http.StatusOK, result)
}
