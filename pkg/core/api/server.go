/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package api provides the HTTP API server for dashgate
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/carverauto/dashgate/pkg/forwarder"
	dgHttp "github.com/carverauto/dashgate/pkg/http"
	"github.com/carverauto/dashgate/pkg/logger"
	"github.com/carverauto/dashgate/pkg/models"
	"github.com/carverauto/dashgate/pkg/swagger"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultPingInterval    = 30 * time.Second
	defaultSendBuffer      = 256

	healthBody = "Backend is healthy"
)

// NewAPIServer creates a new API server instance with the given configuration
func NewAPIServer(config models.CORSConfig, options ...func(server *APIServer)) *APIServer {
	s := &APIServer{
		router:       mux.NewRouter(),
		corsConfig:   config,
		logger:       logger.NewTestLogger(),
		targets:      make(map[string]*forwarder.Target),
		pingInterval: defaultPingInterval,
		sendBuffer:   defaultSendBuffer,
	}

	for _, o := range options {
		o(s)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkWebSocketOrigin,
	}

	s.setupRoutes()

	return s
}

// WithLogger sets the logger used by handlers and middleware.
func WithLogger(log logger.Logger) func(*APIServer) {
	return func(server *APIServer) {
		server.logger = log
	}
}

// WithForwarder sets the forwarder and the upstream targets it serves,
// keyed by canonical target name.
func WithForwarder(f Forwarder, targets map[string]*forwarder.Target) func(*APIServer) {
	return func(server *APIServer) {
		server.forwarder = f

		for name, t := range targets {
			server.targets[name] = t
		}
	}
}

// WithRealtimeHub enables the realtime websocket endpoint.
func WithRealtimeHub(hub RealtimeHub) func(*APIServer) {
	return func(server *APIServer) {
		server.hub = hub
	}
}

// WithPingInterval overrides how often realtime clients are pinged.
func WithPingInterval(d time.Duration) func(*APIServer) {
	return func(server *APIServer) {
		server.pingInterval = d
	}
}

// WithSendBuffer overrides how many frames may queue per realtime client
// before it is disconnected as too slow.
func WithSendBuffer(n int) func(*APIServer) {
	return func(server *APIServer) {
		server.sendBuffer = n
	}
}

// setupRoutes configures the HTTP routes for the API server.
func (s *APIServer) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return dgHttp.CommonMiddleware(next, s.corsConfig, s.logger)
	})
	s.router.Use(dgHttp.LoggingMiddleware(s.logger))

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/swagger/doc.json", swagger.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/api/realtime", s.handleRealtime).Methods(http.MethodGet)
	s.router.HandleFunc("/api/realtime/state", s.handleRealtimeState).Methods(http.MethodGet)
	s.router.HandleFunc("/api/{target}/{rest:.*}", s.handleProxy)
}

// Handler returns the root HTTP handler.
func (s *APIServer) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *APIServer) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", addr).Msg("Backend server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	return nil
}

// @Summary Health check
// @Description Reports that the backend process is up.
// @Tags System
// @Produce plain
// @Success 200 {string} string "Backend is healthy"
// @Router /health [get]
func (*APIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	_, _ = w.Write([]byte(healthBody))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(statusCode)

	errResponse := models.ErrorResponse{
		Message: message,
		Status:  statusCode,
	}

	if err := json.NewEncoder(w).Encode(errResponse); err != nil {
		// Fallback in case encoding fails
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
