// Package errors defines the JSON error envelope returned by every
// HTTP endpoint.
package errors

import (
	"encoding/json"
	"net/http"
)

// Stable machine-readable error codes.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeValidation       = "VALIDATION"
	CodeTooManyRequests  = "TOO_MANY_REQUESTS"
	CodeInternal         = "INTERNAL_ERROR"
)

// HTTPErrorResponse is the body of every non-2xx response.
type HTTPErrorResponse struct {
	Error HTTPError `json:"error"`
}

// HTTPError carries a stable code and a human-readable message.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Respond writes the error envelope with the given status.
func Respond(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{
		Error: HTTPError{Code: code, Message: message},
	})
}

// NotFound is the router's fallback for unknown paths.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	Respond(w, http.StatusNotFound, CodeNotFound, "resource not found")
}

// MethodNotAllowed is the router's fallback for wrong methods.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	Respond(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
}
