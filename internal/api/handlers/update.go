// Package handlers holds the HTTP request handlers.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wonhee/tigerboard/internal/collector"
	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/pkg/logger"
)

// UpdateHandler triggers batch runs.
type UpdateHandler struct {
	collector  *collector.Collector
	logger     *logger.Logger
	onComplete func(*contracts.BatchResult)
}

// NewUpdateHandler creates the handler.
func NewUpdateHandler(col *collector.Collector, log *logger.Logger) *UpdateHandler {
	return &UpdateHandler{collector: col, logger: log}
}

// OnComplete installs a sink that receives every finished batch
// accounting, in addition to the HTTP response. The progress feed uses
// it to close out its event stream.
func (h *UpdateHandler) OnComplete(fn func(*contracts.BatchResult)) {
	h.onComplete = fn
}

// updateRequest is the POST /api/update body. Empty instrument_ids
// means every active instrument.
type updateRequest struct {
	InstrumentIDs []int64 `json:"instrument_ids,omitempty"`
	Force         bool    `json:"force,omitempty"`
}

// Trigger runs a batch synchronously and returns its full accounting.
// POST /api/update
func (h *UpdateHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	result, err := h.collector.RunBatch(r.Context(), req.InstrumentIDs, req.Force)
	if err != nil {
		h.logger.WithError(err).Error("Batch run failed")
		respondError(w, http.StatusInternalServerError, "batch run failed")
		return
	}

	if h.onComplete != nil {
		h.onComplete(result)
	}
	respondJSON(w, http.StatusOK, result)
}
