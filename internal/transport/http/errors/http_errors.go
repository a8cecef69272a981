package errors

import (
	"encoding/json"
	"net/http"
)

// APIError is the envelope every non-2xx response carries. Clients key off
// Code and treat Message as display text.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RateLimitError extends the envelope with the sign-in cooldown so clients
// can back off without parsing headers.
type RateLimitError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
