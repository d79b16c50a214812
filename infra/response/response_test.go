package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mstgnz/paynow/infra/validate"
	"github.com/mstgnz/paynow/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessResponse(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, http.StatusOK, "Test successful", map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, map[string]any{"key": "value"}, resp.Data)
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusBadRequest, "Test error", errors.New("boom"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "boom", resp.Error)
	assert.Nil(t, resp.Data)
}

func TestErrorResponse_ValidationFields(t *testing.T) {
	err := validate.Struct(provider.RefundRequest{Currency: "XXX"})
	require.Error(t, err)

	w := httptest.NewRecorder()
	Error(w, http.StatusBadRequest, "Invalid request", err)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	fields, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "currency")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid request", err: fmt.Errorf("x: %w", provider.ErrInvalidRequest), want: http.StatusBadRequest},
		{name: "invalid callback", err: fmt.Errorf("x: %w", provider.ErrInvalidCallback), want: http.StatusBadRequest},
		{name: "conversion", err: &provider.ConversionError{Amount: "1.001", Currency: "PLN"}, want: http.StatusBadRequest},
		{name: "unrecognized status", err: &provider.UnrecognizedStatusError{Kind: "payment", Status: "X"}, want: http.StatusBadRequest},
		{name: "state conflict", err: &provider.StateConflictError{RefundID: "R1", Err: &provider.APIError{StatusCode: 409}}, want: http.StatusConflict},
		{name: "not implemented", err: fmt.Errorf("paynow: charge: %w", provider.ErrNotImplemented), want: http.StatusNotImplemented},
		{name: "transport", err: &provider.TransportError{Op: "GET /", Err: errors.New("refused")}, want: http.StatusBadGateway},
		{name: "api", err: fmt.Errorf("paynow: %w", &provider.APIError{StatusCode: 401}), want: http.StatusBadGateway},
		{name: "parse", err: &provider.ParseError{Op: "status", Err: errors.New("eof")}, want: http.StatusBadGateway},
		{name: "closed", err: provider.ErrClientClosed, want: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestFromError(t *testing.T) {
	w := httptest.NewRecorder()
	FromError(w, "Refund cannot be cancelled", &provider.StateConflictError{RefundID: "R1", Status: "SUCCESSFUL"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func BenchmarkSuccessResponse(b *testing.B) {
	data := map[string]string{"test": "data"}

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		Success(w, http.StatusOK, "Benchmark test", data)
	}
}
