package rest

import (
	"encoding/json"
	"net/http"
)

// APIError is the structured error envelope for webhook responses.
type APIError struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Error codes for webhook failure modes.
const (
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodePlanUnclassified  = "PLAN_UNCLASSIFIED"
	ErrCodeInvalidToken      = "INVALID_TOKEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// respondError sends the structured error envelope. Token-validation
// failures all collapse onto ErrCodeInvalidToken with a generic message so
// the response never discloses whether a token exists or was consumed.
func respondError(w http.ResponseWriter, status int, code, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{
		Error:     message,
		Code:      code,
		Message:   message,
		RequestID: requestID,
	})
}

// respondJSON sends a success payload.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
