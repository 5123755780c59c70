// internal/server/handlers/ingest.go

package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"

	"trendboard/internal/domain/trend"
)

// secretParam is the query parameter carrying the trigger secret
const secretParam = "key_ftf"

// IngestHandler handles ingestion triggers
type IngestHandler struct {
	ingester trend.Ingester
	secret   string
	logger   *zap.Logger
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(ingester trend.Ingester, secret string, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{
		ingester: ingester,
		secret:   secret,
		logger:   logger,
	}
}

// TriggerTrendSync runs a full catalog sync for the requested gender
func (h *IngestHandler) TriggerTrendSync(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		respondWithError(w, http.StatusBadRequest, "Invalid request", trend.Invalid(secretParam, "does not match"))
		return
	}

	// a client disconnect must not abort a run halfway through
	ctx := context.WithoutCancel(r.Context())

	result, err := h.ingester.SyncTrends(ctx, queryString(r, "gender"))
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to sync trends", err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// TriggerEnrichment fetches products for the requested category's top trends
func (h *IngestHandler) TriggerEnrichment(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		respondWithError(w, http.StatusBadRequest, "Invalid request", trend.Invalid(secretParam, "does not match"))
		return
	}

	ctx := context.WithoutCancel(r.Context())

	result, err := h.ingester.EnrichCategory(ctx, queryString(r, "category"))
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to enrich products", err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// authorized compares the supplied secret in constant time. An empty
// configured secret rejects every request.
func (h *IngestHandler) authorized(r *http.Request) bool {
	supplied := r.URL.Query().Get(secretParam)
	if h.secret == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(h.secret)) == 1
}
