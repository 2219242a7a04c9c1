package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/purvaestates/voice-call-service/pkg/logger"
	"go.uber.org/zap"
)

// readRequestBody reads and logs the request body
func readRequestBody(w http.ResponseWriter, r *http.Request, endpoint string) ([]byte, bool) {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Base().Error("Failed to read request body", zap.String("endpoint", endpoint))
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	defer r.Body.Close()

	logger.Base().Debug("request body", zap.String("body", string(bodyBytes)), zap.String("endpoint", endpoint))
	return bodyBytes, true
}

// parseJSON parses JSON and handles errors
func parseJSON(w http.ResponseWriter, bodyBytes []byte, target interface{}, endpoint string) bool {
	if err := json.Unmarshal(bodyBytes, target); err != nil {
		logger.Base().Error("Failed to parse request body", zap.String("endpoint", endpoint))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// sendJSONResponse writes a JSON response with the given status code
func sendJSONResponse(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Base().Error("Failed to encode response", zap.Error(err))
	}
}

// sendErrorResponse writes a JSON error with the given status code
func sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	sendJSONResponse(w, statusCode, map[string]string{"error": message})
}
