package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mstgnz/paynow/infra/validate"
	"github.com/mstgnz/paynow/provider"
)

// Response is a standardized API response structure
type Response struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WriteJSON writes v as a JSON body with the given status
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// Success writes a successful response with data
func Success(w http.ResponseWriter, statusCode int, message string, data any) {
	WriteJSON(w, statusCode, Response{
		Code:    statusCode,
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error writes an error response
func Error(w http.ResponseWriter, statusCode int, message string, err error) {
	resp := Response{
		Code:    statusCode,
		Success: false,
		Message: message,
	}

	if err != nil {
		resp.Error = err.Error()
		if fields := validate.Errors(err); fields != nil {
			resp.Data = fields
		}
	}

	WriteJSON(w, statusCode, resp)
}

// StatusFor maps a processor error to the HTTP status returned to API callers
func StatusFor(err error) int {
	var (
		conversionErr   *provider.ConversionError
		unrecognizedErr *provider.UnrecognizedStatusError
		conflictErr     *provider.StateConflictError
		transportErr    *provider.TransportError
		apiErr          *provider.APIError
		parseErr        *provider.ParseError
	)

	switch {
	case errors.As(err, &conflictErr):
		return http.StatusConflict
	case errors.Is(err, provider.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, provider.ErrInvalidRequest),
		errors.Is(err, provider.ErrInvalidCallback),
		errors.As(err, &conversionErr),
		errors.As(err, &unrecognizedErr):
		return http.StatusBadRequest
	case errors.Is(err, provider.ErrClientClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &transportErr), errors.As(err, &apiErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err with the status chosen by StatusFor
func FromError(w http.ResponseWriter, message string, err error) {
	Error(w, StatusFor(err), message, err)
}
