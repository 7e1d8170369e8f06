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

package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carverauto/dashgate/pkg/models"
	"github.com/carverauto/dashgate/pkg/relay"
)

// Realtime frame event names.
const (
	FrameMonitorList = "monitorList"
	FrameHeartbeat   = "heartbeat"
	FrameUptime      = "uptime"
	FrameConnect     = "connect"
	FrameDisconnect  = "disconnect"
	FrameError       = "error"
)

const (
	realtimeWriteWait = 10 * time.Second
	realtimeReadLimit = 4096
)

var errSlowConsumer = errors.New("realtime client too slow")

// realtimeClient queues relay events for one websocket connection. Frames
// delivered while the subscription is being set up form the join replay and
// are kept in full; after that the queue is bounded and enqueue never
// blocks: a full queue marks the client as overflowed instead.
type realtimeClient struct {
	mu        sync.Mutex
	replaying bool
	backlog   []models.RealtimeFrame

	send     chan models.RealtimeFrame
	overflow chan struct{}
	once     sync.Once
}

func newRealtimeClient(buffer int) *realtimeClient {
	return &realtimeClient{
		replaying: true,
		send:      make(chan models.RealtimeFrame, buffer),
		overflow:  make(chan struct{}),
	}
}

func (c *realtimeClient) enqueue(frame models.RealtimeFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.replaying {
		c.backlog = append(c.backlog, frame)
		return
	}

	select {
	case c.send <- frame:
	default:
		c.once.Do(func() { close(c.overflow) })
	}
}

// endReplay switches to the bounded live queue and returns every frame
// received so far, in order. They precede anything later read from send.
func (c *realtimeClient) endReplay() []models.RealtimeFrame {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.replaying = false
	backlog := c.backlog
	c.backlog = nil

	return backlog
}

func (c *realtimeClient) subscriber() relay.Subscriber {
	return relay.Subscriber{
		OnMonitorList: func(monitors []models.Monitor) {
			c.enqueue(models.RealtimeFrame{Event: FrameMonitorList, Data: monitors})
		},
		OnHeartbeat: func(hb models.Heartbeat) {
			c.enqueue(models.RealtimeFrame{Event: FrameHeartbeat, Data: hb})
		},
		OnUptime: func(u models.Uptime) {
			c.enqueue(models.RealtimeFrame{Event: FrameUptime, Data: u})
		},
		OnConnect: func() {
			c.enqueue(models.RealtimeFrame{Event: FrameConnect})
		},
		OnDisconnect: func() {
			c.enqueue(models.RealtimeFrame{Event: FrameDisconnect})
		},
	}
}

// handleRealtime upgrades to a websocket and relays monitor events to it.
//
// @Summary Realtime monitor events
// @Description Websocket. Sends {"event","data"} frames: monitorList, heartbeat, uptime, connect, disconnect.
// @Tags Realtime
// @Success 101 {object} models.RealtimeFrame
// @Failure 503 {object} models.ErrorResponse "Realtime relay not configured"
// @Router /api/realtime [get]
func (s *APIServer) handleRealtime(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, "Realtime relay not configured", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Str("origin", r.Header.Get("Origin")).
			Msg("Failed to upgrade to WebSocket")

		return
	}

	defer func() {
		_ = conn.Close()
	}()

	client := newRealtimeClient(s.sendBuffer)

	unsubscribe, err := s.hub.Subscribe(client.subscriber())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Realtime subscription refused")

		_ = conn.SetWriteDeadline(time.Now().Add(realtimeWriteWait))
		_ = conn.WriteJSON(models.RealtimeFrame{Event: FrameError, Data: err.Error()})

		return
	}
	defer unsubscribe()

	s.logger.Info().
		Str("remote_addr", r.RemoteAddr).
		Int("subscribers", s.hub.Subscribers()).
		Msg("Realtime client connected")

	replay := client.endReplay()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.readRealtime(conn, cancel)

	err = s.writeRealtime(ctx, conn, client, replay)

	s.logger.Info().
		Err(err).
		Str("remote_addr", r.RemoteAddr).
		Msg("Realtime client disconnected")
}

// readRealtime discards client messages and cancels when the client goes away
// or stops answering pings.
func (s *APIServer) readRealtime(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	pongWait := 2 * s.pingInterval

	conn.SetReadLimit(realtimeReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("Realtime client read error")
			}

			return
		}
	}
}

// writeRealtime is the only writer on conn once the subscription exists. It
// sends the join replay before any live frame.
func (s *APIServer) writeRealtime(
	ctx context.Context, conn *websocket.Conn, client *realtimeClient, replay []models.RealtimeFrame,
) error {
	for _, frame := range replay {
		_ = conn.SetWriteDeadline(time.Now().Add(realtimeWriteWait))

		if err := conn.WriteJSON(frame); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(realtimeWriteWait))

			if err := conn.WriteJSON(frame); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(realtimeWriteWait)); err != nil {
				return err
			}
		case <-client.overflow:
			s.logger.Warn().Int("buffer", cap(client.send)).Msg("Disconnecting slow realtime client")

			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "slow consumer"),
				time.Now().Add(realtimeWriteWait))

			return errSlowConsumer
		}
	}
}

// handleRealtimeState reports the relay's upstream connection state.
//
// @Summary Realtime relay state
// @Tags Realtime
// @Produce json
// @Success 200 {object} models.RelayStatus
// @Router /api/realtime/state [get]
func (s *APIServer) handleRealtimeState(w http.ResponseWriter, _ *http.Request) {
	if s.hub == nil {
		writeJSON(w, http.StatusOK, models.RelayStatus{State: "disabled"})
		return
	}

	writeJSON(w, http.StatusOK, models.RelayStatus{
		State:       s.hub.State().String(),
		Subscribers: s.hub.Subscribers(),
	})
}

func (s *APIServer) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// If there's no Origin header, allow the connection (same as middleware logic)
	if origin == "" {
		return true
	}

	for _, allowedOrigin := range s.corsConfig.AllowedOrigins {
		if allowedOrigin == origin || allowedOrigin == "*" {
			return true
		}
	}

	s.logger.Warn().
		Str("origin", origin).
		Interface("allowed_origins", s.corsConfig.AllowedOrigins).
		Msg("WebSocket CORS: Origin not allowed")

	return false
}
