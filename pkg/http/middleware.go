// Package http holds the middleware shared by dashgate's HTTP handlers.
package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/dashgate/pkg/logger"
	"github.com/carverauto/dashgate/pkg/models"
)

const preflightMaxAge = 3600

// CommonMiddleware applies CORS for the configured origins and answers
// preflight requests.
func CommonMiddleware(next http.Handler, corsConfig models.CORSConfig, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if allowed := allowedOrigin(origin, corsConfig.AllowedOrigins); allowed != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(preflightMaxAge))

			if allowed != "*" {
				w.Header().Add("Vary", "Origin")
			}

			if corsConfig.AllowCredentials && allowed != "*" {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		} else if origin != "" {
			log.Debug().Str("origin", origin).Msg("CORS origin not allowed")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allowedOrigin returns the value for Access-Control-Allow-Origin, or "" when
// origin may not call the API.
func allowedOrigin(origin string, allowed []string) string {
	if origin == "" {
		return ""
	}

	for _, a := range allowed {
		switch {
		case a == "*":
			return "*"
		case strings.EqualFold(a, origin):
			return origin
		}
	}

	return ""
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}

	n, err := r.ResponseWriter.Write(b)
	r.bytes += n

	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer, which the
// websocket upgrader needs for hijacking.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}

			event := log.Debug()
			if status >= http.StatusInternalServerError {
				event = log.Warn()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", rec.bytes).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("HTTP request")
		})
	}
}
