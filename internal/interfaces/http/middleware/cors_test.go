package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func corsRequest(t *testing.T, config CORSConfig, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(method, "/api/v1/layer", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	if method == http.MethodOptions {
		r.Header.Set("Access-Control-Request-Method", http.MethodGet)
	}
	CORS(config)(okHandler()).ServeHTTP(w, r)
	return w
}

func TestCORS_PreflightRequest(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://map.example.com"}

	w := corsRequest(t, config, http.MethodOptions, "https://map.example.com")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://map.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), HeaderRequestID)
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_SimpleRequest(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://map.example.com"}

	w := corsRequest(t, config, http.MethodGet, "https://map.example.com")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://map.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, HeaderRequestID, w.Header().Get("Access-Control-Expose-Headers"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://map.example.com"}

	w := corsRequest(t, config, http.MethodGet, "https://evil.example.org")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_NoOriginHeader(t *testing.T) {
	w := corsRequest(t, DefaultCORSConfig(), http.MethodGet, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_WildcardOrigin(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"*"}

	w := corsRequest(t, config, http.MethodGet, "https://anything.test")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	config.AllowCredentials = true
	w = corsRequest(t, config, http.MethodGet, "https://anything.test")
	assert.Equal(t, "https://anything.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_OriginMatchIsExact(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://Map.Example.com", "*.example.com"}

	w := corsRequest(t, config, http.MethodGet, "https://map.example.com")
	assert.Equal(t, "https://map.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	// Patterns other than a lone "*" are literal origins.
	w = corsRequest(t, config, http.MethodGet, "https://dash.example.com")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_NoMaxAge(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://map.example.com"}
	config.MaxAge = 0

	w := corsRequest(t, config, http.MethodOptions, "https://map.example.com")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Max-Age"))
}

func TestDefaultCORSConfig(t *testing.T) {
	c := DefaultCORSConfig()
	assert.Empty(t, c.AllowedOrigins)
	assert.False(t, c.AllowCredentials)
	assert.Equal(t, []string{HeaderRequestID}, c.ExposedHeaders)
}
