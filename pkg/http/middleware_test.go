// pkg/http/middleware_test.go
package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/carverauto/dashgate/pkg/logger"
	"github.com/carverauto/dashgate/pkg/models"
)

func okHandler(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			t.Errorf("Error writing response: %v", err)
		}
	})
}

func TestCommonMiddleware_CORS(t *testing.T) {
	log := logger.NewTestLogger()

	corsConfig := models.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowCredentials: true,
	}

	handler := CommonMiddleware(okHandler(t), corsConfig, log)

	req := httptest.NewRequest(http.MethodGet, "/api/pihole/stats/summary", http.NoBody)
	req.Header.Set("Origin", "http://localhost:5173")

	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("CORS origin not set correctly: got %v", rr.Header().Get("Access-Control-Allow-Origin"))
	}

	if rr.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Errorf("credentials not allowed for configured origin")
	}

	// Test unallowed origin
	req = httptest.NewRequest(http.MethodGet, "/", http.NoBody)

	req.Header.Set("Origin", "http://evil.com")

	rr = httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("CORS allowed an unpermitted origin")
	}
}

func TestCommonMiddleware_Wildcard(t *testing.T) {
	handler := CommonMiddleware(okHandler(t), models.CORSConfig{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
	}, logger.NewTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("Origin", "http://dashboard.lan")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}

	if rr.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Errorf("credentials must not be combined with a wildcard origin")
	}
}

func TestCommonMiddleware_Preflight(t *testing.T) {
	called := false

	handler := CommonMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}), models.CORSConfig{AllowedOrigins: []string{"*"}}, logger.NewTestLogger())

	req := httptest.NewRequest(http.MethodOptions, "/api/hass/states", http.NoBody)
	req.Header.Set("Origin", "http://dashboard.lan")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", rr.Code, http.StatusNoContent)
	}

	if called {
		t.Errorf("preflight reached the wrapped handler")
	}

	// A bare OPTIONS without preflight headers is proxied like any other verb.
	req = httptest.NewRequest(http.MethodOptions, "/api/hass/states", http.NoBody)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !called {
		t.Errorf("plain OPTIONS request was swallowed")
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer

	log := logger.NewWriterLogger(&buf)

	handler := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"Proxy Request Failed","status":502}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/beszel/api/collections/systems/records", http.NoBody)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rr.Code)
	}

	out := buf.String()
	if !strings.Contains(out, `"status":502`) || !strings.Contains(out, `"path":"/api/beszel/api/collections/systems/records"`) {
		t.Errorf("request log line missing fields: %s", out)
	}
}
