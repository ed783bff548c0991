// Package httpx holds the small JSON response helpers shared by all handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the structured failure payload returned to clients. Nothing
// beyond the message is ever surfaced: no stack traces, no connection strings.
type ErrorBody struct {
	Message string `json:"message"`
}

// WriteJSON serializes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError responds with the structured {message} payload.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Message: message})
}
