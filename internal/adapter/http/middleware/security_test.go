package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serveWithHeaders(t *testing.T, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeaders_StaticHeaders(t *testing.T) {
	rec := serveWithHeaders(t, nil)

	tests := []struct {
		header   string
		expected string
	}{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.expected, rec.Header().Get(tt.header))
		})
	}
}

func TestSecurityHeaders_CSP(t *testing.T) {
	rec := serveWithHeaders(t, nil)
	csp := rec.Header().Get("Content-Security-Policy")

	directives := []string{
		"default-src 'none'",
		"img-src 'self'",
		"media-src 'self'",
		"frame-ancestors 'none'",
	}
	for _, directive := range directives {
		assert.Contains(t, csp, directive)
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*http.Request)
		want   bool
	}{
		{"plain HTTP", nil, false},
		{"X-Forwarded-Proto https", func(r *http.Request) {
			r.Header.Set("X-Forwarded-Proto", "https")
		}, true},
		{"X-Forwarded-Proto http", func(r *http.Request) {
			r.Header.Set("X-Forwarded-Proto", "http")
		}, false},
		{"direct TLS", func(r *http.Request) {
			r.TLS = &tls.ConnectionState{}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveWithHeaders(t, tt.mutate)
			hsts := rec.Header().Get("Strict-Transport-Security")
			if tt.want {
				assert.Contains(t, hsts, "max-age=")
				assert.Contains(t, hsts, "includeSubDomains")
			} else {
				assert.Empty(t, hsts)
			}
		})
	}
}

func TestSecurityHeaders_PassesThrough(t *testing.T) {
	called := false
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("test response"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "test response", rec.Body.String())
}
