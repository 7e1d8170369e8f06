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

// Package relay bridges one upstream Uptime Kuma event stream to many local
// subscribers, replaying the latest known state to each new subscriber.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/carverauto/dashgate/pkg/logger"
	"github.com/carverauto/dashgate/pkg/models"
	"github.com/carverauto/dashgate/pkg/socketio"
)

const (
	instrumentationName = "github.com/carverauto/dashgate/pkg/relay"

	defaultReconnectAttempts = 10
	defaultReconnectDelay    = time.Second
	loginTimeout             = 10 * time.Second
)

// Credentials authenticate the Hub upstream. Token takes precedence over the
// username/password pair. All empty means no login.
type Credentials struct {
	Token    string
	Username string
	Password string
}

// Config tunes the Hub's reconnect and login behaviour.
type Config struct {
	Credentials           Credentials
	ReconnectAttempts     uint
	ReconnectDelay        time.Duration
	LoginFailureThreshold int
	LoginCooldown         time.Duration
}

// Hub owns a single upstream connection and fans its events out.
//
// mu serialises state changes, cache updates and delivery, so every
// subscriber sees events in arrival order and a join replay completes before
// any live event reaches the new subscriber. Registry membership has its own
// lock, which lets a callback unsubscribe.
type Hub struct {
	dialer   Dialer
	cfg      Config
	logger   logger.Logger
	breaker  *loginBreaker
	registry *Registry
	events   metric.Int64Counter

	mu      sync.Mutex
	state   State
	cache   *Cache
	conn    Conn
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewHub(dialer Dialer, cfg Config, log logger.Logger) *Hub {
	if cfg.ReconnectAttempts == 0 {
		cfg.ReconnectAttempts = defaultReconnectAttempts
	}

	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}

	events, err := otel.Meter(instrumentationName).Int64Counter("dashgate.relay.events",
		metric.WithDescription("Upstream events relayed to subscribers"))
	if err != nil {
		events = noop.Int64Counter{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		dialer:   dialer,
		cfg:      cfg,
		logger:   log,
		breaker:  newLoginBreaker(cfg.LoginFailureThreshold, cfg.LoginCooldown, log),
		registry: NewRegistry(),
		events:   events,
		state:    StateIdle,
		cache:    NewCache(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// State returns the current connection state.
func (h *Hub) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state
}

// Subscribers returns how many subscribers are registered.
func (h *Hub) Subscribers() int {
	return h.registry.Len()
}

// Subscribe registers sub, replays the cached state to it and makes sure the
// upstream connection loop is running. The returned func unsubscribes and is
// safe to call more than once.
func (h *Hub) Subscribe(sub Subscriber) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateClosed {
		return nil, ErrHubClosed
	}

	id := h.registry.Add(sub)

	if monitors := h.cache.Monitors(); len(monitors) > 0 && sub.OnMonitorList != nil {
		sub.OnMonitorList(monitors)
	}

	if sub.OnHeartbeat != nil {
		for _, hb := range h.cache.Heartbeats() {
			sub.OnHeartbeat(hb)
		}
	}

	if sub.OnUptime != nil {
		for _, u := range h.cache.Uptimes() {
			sub.OnUptime(u)
		}
	}

	if h.state == StateConnected && sub.OnConnect != nil {
		sub.OnConnect()
	}

	h.logger.Debug().
		Str("subscriber", id.String()).
		Int("subscribers", h.registry.Len()).
		Msg("Subscriber joined")

	if !h.running {
		h.running = true
		h.wg.Add(1)

		go h.run(h.ctx)
	}

	return func() {
		if h.registry.Remove(id) {
			h.logger.Debug().Str("subscriber", id.String()).Msg("Subscriber left")
		}
	}, nil
}

// Close tears down the upstream connection and drops all subscribers and
// cached state. The Hub cannot be reused.
func (h *Hub) Close() error {
	h.mu.Lock()

	if h.state == StateClosed {
		h.mu.Unlock()
		return nil
	}

	h.state = StateClosed
	h.cancel()

	if h.conn != nil {
		_ = h.conn.Close()
	}

	h.cache.Reset()
	h.registry.Clear()
	h.mu.Unlock()

	h.wg.Wait()

	h.logger.Info().Msg("Relay hub closed")

	return nil
}

// run dials, serves and redials until the context ends or reconnect attempts
// are exhausted. running is cleared only when the loop gives up, under mu and
// after its last dial, so a Subscribe can never start a second loop while
// this one may still dial.
func (h *Hub) run(ctx context.Context) {
	defer h.wg.Done()

	for {
		conn, err := h.dial(ctx)
		if err != nil {
			if ctx.Err() == nil {
				h.logger.Error().Err(err).
					Uint("attempts", h.cfg.ReconnectAttempts).
					Msg("Giving up on upstream connection until the next subscriber joins")
			}

			h.mu.Lock()
			if h.state != StateClosed {
				h.state = StateDisconnected
			}
			h.running = false
			h.mu.Unlock()

			return
		}

		h.serve(ctx, conn)

		if ctx.Err() != nil {
			return
		}
	}
}

func (h *Hub) dial(ctx context.Context) (Conn, error) {
	h.mu.Lock()
	if h.state == StateClosed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}

	h.state = StateConnecting
	h.mu.Unlock()

	attempt := 0

	return backoff.Retry(ctx, func() (Conn, error) {
		attempt++

		conn, err := h.dialer.Dial(ctx)
		if err != nil {
			h.logger.Warn().Err(err).Int("attempt", attempt).Msg("Upstream connection failed")
			return nil, err
		}

		return conn, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(h.cfg.ReconnectDelay)),
		backoff.WithMaxTries(h.cfg.ReconnectAttempts),
		backoff.WithMaxElapsedTime(0),
	)
}

// serve relays events from conn until it ends.
func (h *Hub) serve(ctx context.Context, conn Conn) {
	h.mu.Lock()
	if h.state == StateClosed {
		h.mu.Unlock()
		_ = conn.Close()

		return
	}

	h.conn = conn
	h.state = StateConnected
	h.broadcast(func(s Subscriber) {
		if s.OnConnect != nil {
			s.OnConnect()
		}
	})
	h.mu.Unlock()

	h.logger.Info().Msg("Connected to upstream monitor")

	connCtx, cancel := context.WithCancel(ctx)

	var login sync.WaitGroup

	login.Add(1)

	go func() {
		defer login.Done()
		h.login(connCtx, conn)
	}()

	var err error

	for {
		var ev socketio.Event

		ev, err = conn.Next(connCtx)
		if err != nil {
			break
		}

		h.handle(ev)
	}

	cancel()
	login.Wait()

	_ = conn.Close()

	h.mu.Lock()
	h.conn = nil

	if h.state != StateClosed {
		h.state = StateDisconnected
		h.broadcast(func(s Subscriber) {
			if s.OnDisconnect != nil {
				s.OnDisconnect()
			}
		})
	}
	h.mu.Unlock()

	if ctx.Err() == nil {
		h.logger.Warn().Err(err).Msg("Disconnected from upstream monitor")
	}
}

// login authenticates the connection. Its outcome never changes the state.
func (h *Hub) login(ctx context.Context, conn Conn) {
	creds := h.cfg.Credentials
	if creds.Token == "" && (creds.Username == "" || creds.Password == "") {
		h.logger.Debug().Msg("No upstream credentials configured, skipping login")
		return
	}

	if !h.breaker.Allow() {
		h.logger.Warn().Err(errLoginSkipped).Msg("Skipping upstream login")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	var (
		reply  []json.RawMessage
		err    error
		method string
	)

	if creds.Token != "" {
		method = "loginByToken"
		reply, err = conn.Call(ctx, method, creds.Token)
	} else {
		method = "login"
		reply, err = conn.Call(ctx, method, map[string]string{
			"username": creds.Username,
			"password": creds.Password,
			"token":    "",
		})
	}

	if err == nil {
		err = loginResult(reply)
	}

	if errors.Is(err, context.Canceled) {
		return
	}

	h.breaker.Record(err)

	if err != nil {
		h.logger.Error().Err(err).Str("method", method).Msg("Upstream login failed")
		return
	}

	h.logger.Info().Str("method", method).Msg("Upstream login succeeded")
}

// loginResult interprets the {ok, msg} acknowledgement of a login call.
func loginResult(reply []json.RawMessage) error {
	if len(reply) == 0 {
		return fmt.Errorf("%w: empty acknowledgement", errLoginRejected)
	}

	var res struct {
		OK  bool   `json:"ok"`
		Msg string `json:"msg"`
	}

	if err := json.Unmarshal(reply[0], &res); err != nil {
		return fmt.Errorf("%w: %w", errLoginRejected, err)
	}

	if !res.OK {
		return fmt.Errorf("%w: %s", errLoginRejected, res.Msg)
	}

	return nil
}

// handle updates the cache from ev and delivers it.
func (h *Hub) handle(ev socketio.Event) {
	var err error

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateConnected {
		return
	}

	switch ev.Name {
	case eventMonitorList:
		var monitors []models.Monitor

		if monitors, err = decodeMonitorList(ev.Args); err == nil {
			h.cache.SetMonitors(monitors)
			h.broadcast(func(s Subscriber) {
				if s.OnMonitorList != nil {
					s.OnMonitorList(h.cache.Monitors())
				}
			})
		}
	case eventHeartbeat:
		var hb models.Heartbeat

		if hb, err = decodeHeartbeat(ev.Args); err == nil {
			h.relayHeartbeat(hb)
		}
	case eventHeartbeatList:
		var list []models.Heartbeat

		if list, err = decodeHeartbeatList(ev.Args); err == nil {
			for _, hb := range list {
				h.relayHeartbeat(hb)
			}
		}
	case eventUptime:
		var u models.Uptime

		if u, err = decodeUptime(ev.Args); err == nil {
			h.cache.PutUptime(u)
			h.broadcast(func(s Subscriber) {
				if s.OnUptime != nil {
					s.OnUptime(u)
				}
			})
		}
	default:
		h.logger.Debug().Str("event", ev.Name).Msg("Ignoring upstream event")
		return
	}

	if err != nil {
		h.logger.Warn().Err(err).Str("event", ev.Name).Msg("Dropping malformed upstream event")
		return
	}

	h.events.Add(context.Background(), 1, metric.WithAttributes(attribute.String("event", ev.Name)))
}

func (h *Hub) relayHeartbeat(hb models.Heartbeat) {
	h.cache.PutHeartbeat(hb)
	h.broadcast(func(s Subscriber) {
		if s.OnHeartbeat != nil {
			s.OnHeartbeat(hb)
		}
	})
}

// broadcast calls fn for every subscriber still registered. Callers hold mu.
func (h *Hub) broadcast(fn func(Subscriber)) {
	for _, reg := range h.registry.snapshot() {
		if !h.registry.Has(reg.id) {
			continue
		}

		fn(reg.sub)
	}
}
