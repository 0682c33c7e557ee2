package middleware

import (
	"encoding/json"
	"net/http"
)

// Error codes written by middleware (lower_snake_case, as in the rest layer)
const (
	ErrorCodeUnauthorized        = "unauthorized"
	ErrorCodeInvalidToken        = "invalid_token"
	ErrorCodeTokenExpired        = "token_expired"
	ErrorCodeInternalServerError = "internal_server_error"
)

// WriteJSONError writes the {error, message} body used across the API.
func WriteJSONError(w http.ResponseWriter, code string, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Already on an error path; nothing useful to do with an encoding failure.
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   code,
		"message": message,
	})
}
