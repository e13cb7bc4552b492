package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"caseguard/models"
)

// Helper functions shared by the handlers

// getUserIDFromContext extracts user_id from request context
// Set by authentication middleware after JWT validation
func getUserIDFromContext(r *http.Request) (int64, error) {
	userIDVal := r.Context().Value("user_id")
	if userIDVal == nil {
		return 0, fmt.Errorf("user ID not found in context - authentication required")
	}

	userID, ok := userIDVal.(int64)
	if !ok {
		return 0, fmt.Errorf("invalid user ID type in context")
	}

	return userID, nil
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondWithError sends an error response
func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	response := models.ErrorResponse{
		Error:   errorType,
		Message: message,
		Code:    statusCode,
	}
	respondWithJSON(w, statusCode, response)
}
