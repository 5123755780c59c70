// internal/server/handlers/run.go

package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"trendboard/internal/domain/trend"
)

// RunHandler serves the ingestion run ledger
type RunHandler struct {
	analytics trend.Analytics
	logger    *zap.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(analytics trend.Analytics, logger *zap.Logger) *RunHandler {
	return &RunHandler{
		analytics: analytics,
		logger:    logger,
	}
}

// ListRuns returns recent ingestion runs
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondWithServiceError(w, h.logger, "Invalid limit", err)
		return
	}

	runs, err := h.analytics.Runs(r.Context(), limit)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to list runs", err)
		return
	}

	respondWithJSON(w, http.StatusOK, runs)
}
