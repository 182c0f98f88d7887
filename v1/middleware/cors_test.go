package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORSMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("AllowsAllOriginsByDefault", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		handler := NewCORSMiddleware()(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("EchoesConfiguredOrigin", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://portal.example.com, https://admin.example.com")
		handler := NewCORSMiddleware()(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
		req.Header.Set("Origin", "https://portal.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "https://portal.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	})

	t.Run("OmitsHeaderForUnknownOrigin", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://portal.example.com")
		handler := NewCORSMiddleware()(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("PreflightShortCircuits", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		called := false
		handler := NewCORSMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		req := httptest.NewRequest(http.MethodOptions, "/api/v1/members", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, called)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
	})

	t.Run("MaxAgeFromEnvironment", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		t.Setenv("CORS_MAX_AGE", "600")
		handler := NewCORSMiddleware()(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("InvalidMaxAgeFallsBack", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		t.Setenv("CORS_MAX_AGE", "not-a-number")
		handler := NewCORSMiddleware()(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	})
}
