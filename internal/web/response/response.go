// Package response writes JSON responses and errors for the HTTP API.
package response

import (
	"fmt"
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Page wraps a page of entities with its position and the total count
type Page struct {
	Entity string `json:"entity"`
	Row    int    `json:"row"`
	Count  int    `json:"count"`
	Total  int    `json:"total"`
	Items  []any  `json:"items"`
}

// RenderJSON writes v as JSON with the given status
func RenderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RenderError renders a standard error response
func RenderError(w http.ResponseWriter, statusCode int, err error) {
	RenderJSON(w, statusCode, &ErrorResponse{
		Error:   "error",
		Message: err.Error(),
		Code:    errorCodeFromStatus(statusCode),
	})
}

// RenderBadRequest renders a 400 Bad Request error
func RenderBadRequest(w http.ResponseWriter, message string) {
	RenderError(w, http.StatusBadRequest, fmt.Errorf("%s", message))
}

// RenderNotFound renders a 404 Not Found error
func RenderNotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RenderError(w, http.StatusNotFound, fmt.Errorf("%s", message))
}

// RenderTooManyRequests renders a 429 Too Many Requests error
func RenderTooManyRequests(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	RenderError(w, http.StatusTooManyRequests, fmt.Errorf("rate limit exceeded"))
}

// RenderInternalError renders a 500 Internal Server Error without exposing
// the cause
func RenderInternalError(w http.ResponseWriter) {
	RenderError(w, http.StatusInternalServerError, fmt.Errorf("internal server error"))
}

// errorCodeFromStatus maps HTTP status codes to error codes
func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	case http.StatusInternalServerError:
		return "internal_error"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	default:
		return "error"
	}
}
