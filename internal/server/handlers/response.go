// internal/server/handlers/response.go

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"trendboard/internal/domain/trend"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := errorResponse{Error: message}
	if err != nil {
		response.Detail = err.Error()
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}

// statusFor maps a service error onto an HTTP status
func statusFor(err error) int {
	var validation *trend.ValidationError
	var upstream *trend.UpstreamError

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, trend.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError classifies err and logs server side failures
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, message string, err error) {
	code := statusFor(err)

	switch code {
	case http.StatusBadRequest:
		message = "Invalid request"
	case http.StatusNotFound:
		message = "Not found"
	default:
		logger.Error(message, zap.Int("status", code), zap.Error(err))
	}

	respondWithError(w, code, message, err)
}

// queryString returns a trimmed query parameter
func queryString(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// queryInt parses an integer query parameter, falling back to def when absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := queryString(r, name)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, trend.Invalid(name, "must be an integer")
	}
	return n, nil
}
