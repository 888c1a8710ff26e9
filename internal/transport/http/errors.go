package http

import (
	"encoding/json"
	"net/http"
)

// Error codes returned in the JSON error envelope.
const (
	ErrCodeInvalidPayload   = "INVALID_PAYLOAD"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RespondError writes status and an ErrorResponse body.
func RespondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}
