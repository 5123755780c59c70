// internal/server/handlers/product.go

package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"trendboard/internal/domain/trend"
)

const defaultProductCount = 10

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	analytics trend.Analytics
	logger    *zap.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(analytics trend.Analytics, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		analytics: analytics,
		logger:    logger,
	}
}

// ListProducts returns the best scored products for a trend and source
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	count, err := queryInt(r, "count", defaultProductCount)
	if err != nil {
		respondWithServiceError(w, h.logger, "Invalid count", err)
		return
	}

	products, err := h.analytics.Products(r.Context(), queryString(r, "trendName"), queryString(r, "ecommerce"), count)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to get products", err)
		return
	}

	respondWithJSON(w, http.StatusOK, products)
}

// GetContribution returns each e-commerce source's share of products
func (h *ProductHandler) GetContribution(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.Contribution(r.Context(), queryString(r, "category"), queryString(r, "trendName"))
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to get contribution", err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// GetPriceRanges returns product counts per price bracket
func (h *ProductHandler) GetPriceRanges(w http.ResponseWriter, r *http.Request) {
	counts, err := h.analytics.PriceBrackets(r.Context(), queryString(r, "trendName"), queryString(r, "ecommerce"))
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to get price ranges", err)
		return
	}

	respondWithJSON(w, http.StatusOK, counts)
}
