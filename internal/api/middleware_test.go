package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

var _ http.Flusher = (*statusRecorder)(nil)

func TestLoggingMiddlewarePreservesFlusher(t *testing.T) {
	logger := zerolog.Nop()

	var flushable bool
	h := loggingMiddleware(&logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, flushable = w.(http.Flusher)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/stream", nil))

	assert.True(t, flushable, "wrapped writer must stay streamable")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusRecorderUnwraps(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}
	assert.Same(t, rec, wrapped.Unwrap())
}
