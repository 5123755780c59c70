// internal/server/handlers/trend.go

package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"trendboard/internal/domain/trend"
)

const (
	defaultTopN       = 10
	defaultTimeWindow = 7
)

// TrendHandler handles trend-related HTTP requests
type TrendHandler struct {
	analytics trend.Analytics
	logger    *zap.Logger
}

// NewTrendHandler creates a new trend handler
func NewTrendHandler(analytics trend.Analytics, logger *zap.Logger) *TrendHandler {
	return &TrendHandler{
		analytics: analytics,
		logger:    logger,
	}
}

// GetTopTrends returns the category's trends ranked by image count
func (h *TrendHandler) GetTopTrends(w http.ResponseWriter, r *http.Request) {
	topN, err := queryInt(r, "top_n", defaultTopN)
	if err != nil {
		respondWithServiceError(w, h.logger, "Invalid top_n", err)
		return
	}

	trends, err := h.analytics.TopTrends(r.Context(), queryString(r, "category"), topN, queryString(r, "geography"))
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to get top trends", err)
		return
	}

	respondWithJSON(w, http.StatusOK, trends)
}

// GetTimeSeries returns daily image counts for a trend
func (h *TrendHandler) GetTimeSeries(w http.ResponseWriter, r *http.Request) {
	window, err := queryInt(r, "timewindow", defaultTimeWindow)
	if err != nil {
		respondWithServiceError(w, h.logger, "Invalid timewindow", err)
		return
	}

	days, err := h.analytics.TimeSeries(r.Context(), queryString(r, "trend_name"), window)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to get time series", err)
		return
	}

	respondWithJSON(w, http.StatusOK, days)
}

// GetCategories returns every category with its trend names
func (h *TrendHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.analytics.Categories(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to get categories", err)
		return
	}

	respondWithJSON(w, http.StatusOK, categories)
}

// LookupTrend returns the newest stored entry for a trend name and gender
func (h *TrendHandler) LookupTrend(w http.ResponseWriter, r *http.Request) {
	entry, err := h.analytics.TrendByNameAndGender(r.Context(), queryString(r, "trend_name"), queryString(r, "gender"))
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to get trend", err)
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}
