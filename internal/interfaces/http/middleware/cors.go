package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig lists what browser clients on other origins may do.  Origins
// match exactly and case-insensitively; a lone "*" admits every origin.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int // seconds a preflight answer may be cached
}

// DefaultCORSConfig admits no origin until server.cors_origins names the map
// front end.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", HeaderRequestID},
		ExposedHeaders: []string{HeaderRequestID},
		MaxAge:         86400,
	}
}

type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]struct{}
	credentials bool
	methods     string
	headers     string
	expose      string
	maxAge      string
}

func newCORSPolicy(c CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:     make(map[string]struct{}, len(c.AllowedOrigins)),
		credentials: c.AllowCredentials,
		methods:     strings.Join(c.AllowedMethods, ", "),
		headers:     strings.Join(c.AllowedHeaders, ", "),
		expose:      strings.Join(c.ExposedHeaders, ", "),
	}
	if c.MaxAge > 0 {
		p.maxAge = strconv.Itoa(c.MaxAge)
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			p.anyOrigin = true
			continue
		}
		p.origins[strings.ToLower(o)] = struct{}{}
	}
	return p
}

func (p corsPolicy) admits(origin string) bool {
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[strings.ToLower(origin)]
	return ok
}

// CORS answers preflights with 204 and decorates admitted cross-origin
// responses.  Requests without an Origin header, or from an origin not
// admitted, pass through untouched.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	p := newCORSPolicy(config)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !p.admits(origin) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			// "*" is not valid alongside credentials, so echo the origin.
			if p.anyOrigin && !p.credentials {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			if p.credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", p.methods)
				h.Set("Access-Control-Allow-Headers", p.headers)
				if p.maxAge != "" {
					h.Set("Access-Control-Max-Age", p.maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			if p.expose != "" {
				h.Set("Access-Control-Expose-Headers", p.expose)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware carries a built CORS handler into RouterConfig.
type CORSMiddleware struct {
	handler func(http.Handler) http.Handler
}

func NewCORSMiddleware(config CORSConfig) *CORSMiddleware {
	return &CORSMiddleware{handler: CORS(config)}
}

func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return m.handler(next)
}
