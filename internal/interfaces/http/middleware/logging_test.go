package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CDNAtlas/internal/testutil"
)

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte("body"))
	})
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRequestLogging_LevelsByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
		msg    string
	}{
		{http.StatusOK, "info", "HTTP request completed"},
		{http.StatusNotFound, "warn", "HTTP request completed with client error"},
		{http.StatusInternalServerError, "error", "HTTP request completed with server error"},
	}
	for _, tt := range tests {
		log := testutil.NewMockLogger()
		h := RequestLogging(log, DefaultLoggingConfig())(statusHandler(tt.status))
		serve(h, "/api/v1/layer?min=10")

		entry, ok := log.Find(tt.level, tt.msg)
		require.True(t, ok, "status %d", tt.status)
		path, _ := entry.Field("path")
		assert.Equal(t, "/api/v1/layer?min=10", path)
		status, _ := entry.Field("status")
		assert.Equal(t, tt.status, status)
		bytes, _ := entry.Field("bytes")
		assert.Equal(t, int64(4), bytes)
	}
}

func TestRequestLogging_SlowRequest(t *testing.T) {
	log := testutil.NewMockLogger()
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
	})
	h := RequestLogging(log, LoggingConfig{SlowThreshold: time.Millisecond})(slow)
	serve(h, "/api/v1/analytics")
	assert.True(t, log.HasMessage("warn", "HTTP request completed (slow)"))
}

func TestRequestLogging_SkipsHealthChecks(t *testing.T) {
	log := testutil.NewMockLogger()
	h := RequestLogging(log, DefaultLoggingConfig())(statusHandler(http.StatusOK))
	serve(h, "/healthz")
	assert.Empty(t, log.GetMessages())
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	log := testutil.NewMockLogger()
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	})
	h := chimw.RequestID(RequestLogging(log, DefaultLoggingConfig())(inner))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	r.Header.Set(chimw.RequestIDHeader, "req-123")
	h.ServeHTTP(w, r)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
}

func TestLoggingMiddleware(t *testing.T) {
	log := testutil.NewMockLogger()
	m := NewLoggingMiddleware(log, DefaultLoggingConfig())
	serve(m.Handler(statusHandler(http.StatusOK)), "/api/v1/cdns")
	assert.True(t, log.HasMessage("info", "HTTP request completed"))
}
