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

// Package socketio is a minimal Socket.IO v4 client over the Engine.IO v4
// websocket transport. It supports the default namespace, text events and
// acknowledgements, which is what Uptime Kuma's API uses.
package socketio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carverauto/dashgate/pkg/logger"
)

var (
	// ErrClosed is returned by operations on a client whose connection has ended.
	ErrClosed = errors.New("socket.io connection closed")
	// ErrConnectRefused is returned when the server answers CONNECT with CONNECT_ERROR.
	ErrConnectRefused = errors.New("socket.io namespace connect refused")

	errUnexpectedHandshake = errors.New("unexpected handshake packet")
)

const (
	defaultPath         = "/socket.io/"
	defaultPingInterval = 25 * time.Second
	defaultPingTimeout  = 20 * time.Second
	eventBuffer         = 256
	writeWait           = 10 * time.Second
)

// defaultHandshakeTimeout bounds the open and CONNECT reads when ctx has no
// earlier deadline.
const defaultHandshakeTimeout = 20 * time.Second

// Option configures Dial.
type Option func(*options)

type options struct {
	path             string
	header           http.Header
	dialer           *websocket.Dialer
	logger           logger.Logger
	handshakeTimeout time.Duration
}

// WithPath overrides the Engine.IO endpoint path (default /socket.io/).
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithHeader adds headers to the websocket handshake request.
func WithHeader(h http.Header) Option {
	return func(o *options) { o.header = h }
}

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithHandshakeTimeout bounds how long Dial waits for the server's open
// packet and CONNECT reply.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) { o.handshakeTimeout = d }
}

func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.logger = log }
}

// Client is one Socket.IO connection. Call, Emit and Next are safe for
// concurrent use.
type Client struct {
	conn   *websocket.Conn
	logger logger.Logger
	sid    string

	writeMu sync.Mutex

	ackMu   sync.Mutex
	nextAck int
	acks    map[int]chan []json.RawMessage

	events chan Event

	done      chan struct{}
	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

// Dial connects to the server at rawURL (http, https, ws or wss), completes
// the Engine.IO handshake and joins the default namespace.
func Dial(ctx context.Context, rawURL string, opts ...Option) (*Client, error) {
	o := options{path: defaultPath, dialer: websocket.DefaultDialer, handshakeTimeout: defaultHandshakeTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = logger.NewTestLogger()
	}

	endpoint, err := engineURL(rawURL, o.path)
	if err != nil {
		return nil, err
	}

	conn, resp, err := o.dialer.DialContext(ctx, endpoint, o.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	c := &Client{
		conn:   conn,
		logger: o.logger,
		acks:   make(map[int]chan []json.RawMessage),
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}

	deadline := time.Now().Add(o.handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	_ = conn.SetReadDeadline(deadline)

	// Reads do not observe ctx, so cancellation closes the socket instead.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	open, err := c.handshake()
	if !stop() {
		_ = conn.Close()

		return nil, fmt.Errorf("socket.io handshake: %w", context.Cause(ctx))
	}

	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	pingInterval := time.Duration(open.PingInterval) * time.Millisecond
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}

	pingTimeout := time.Duration(open.PingTimeout) * time.Millisecond
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}

	go c.readLoop(pingInterval + pingTimeout)

	return c, nil
}

func engineURL(rawURL, path string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse socket.io url: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("parse socket.io url: unsupported scheme %q", u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")

	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// handshake reads the Engine.IO open packet, joins the default namespace and
// waits for the server's CONNECT reply.
func (c *Client) handshake() (*OpenPayload, error) {
	frame, err := c.readFrame()
	if err != nil {
		return nil, fmt.Errorf("read open packet: %w", err)
	}

	if frame == "" || EnginePacketType(frame[0]) != EngineOpen {
		return nil, fmt.Errorf("%w: %.32q", errUnexpectedHandshake, frame)
	}

	var open OpenPayload
	if err := json.Unmarshal([]byte(frame[1:]), &open); err != nil {
		return nil, fmt.Errorf("decode open packet: %w", err)
	}

	if err := c.writeFrame(Packet{Type: PacketConnect, AckID: NoAck}.Encode()); err != nil {
		return nil, err
	}

	for {
		frame, err := c.readFrame()
		if err != nil {
			return nil, fmt.Errorf("read connect reply: %w", err)
		}

		switch {
		case frame == string(EnginePing):
			if err := c.writeFrame(string(EnginePong)); err != nil {
				return nil, err
			}

			continue
		case frame == "" || EnginePacketType(frame[0]) != EngineMessage:
			return nil, fmt.Errorf("%w: %.32q", errUnexpectedHandshake, frame)
		}

		p, err := DecodePacket(frame[1:])
		if err != nil {
			return nil, err
		}

		switch p.Type {
		case PacketConnect:
			var reply struct {
				SID string `json:"sid"`
			}

			_ = json.Unmarshal(p.Data, &reply)
			c.sid = reply.SID

			return &open, nil
		case PacketConnectError:
			return nil, fmt.Errorf("%w: %s", ErrConnectRefused, p.Data)
		default:
			return nil, fmt.Errorf("%w: packet type %c", errUnexpectedHandshake, p.Type)
		}
	}
}

// SID returns the Socket.IO session id assigned by the server.
func (c *Client) SID() string {
	return c.sid
}

func (c *Client) readFrame() (string, error) {
	msgType, data, err := c.conn.ReadMessage()
	if err != nil {
		return "", err
	}

	if msgType != websocket.TextMessage {
		return "", errBinaryUnsupported
	}

	return string(data), nil
}

func (c *Client) writeFrame(frame string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

func (c *Client) readLoop(idleTimeout time.Duration) {
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(idleTimeout))

		frame, err := c.readFrame()
		if err != nil {
			c.shutdown(err)
			return
		}

		if frame == "" {
			continue
		}

		switch EnginePacketType(frame[0]) {
		case EnginePing:
			if err := c.writeFrame(string(EnginePong) + frame[1:]); err != nil {
				c.shutdown(err)
				return
			}
		case EngineClose:
			c.shutdown(ErrClosed)
			return
		case EngineMessage:
			if !c.dispatch(frame[1:]) {
				return
			}
		case EngineOpen, EnginePong, EngineUpgrade, EngineNoop:
		default:
			c.logger.Debug().Str("frame", truncate(frame)).Msg("Ignoring unknown engine.io frame")
		}
	}
}

// dispatch routes one Socket.IO packet and reports whether reading should continue.
func (c *Client) dispatch(payload string) bool {
	p, err := DecodePacket(payload)
	if err != nil {
		c.logger.Warn().Err(err).Str("payload", truncate(payload)).Msg("Dropping undecodable socket.io packet")
		return true
	}

	switch p.Type {
	case PacketEvent:
		ev, err := DecodeEvent(p)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Dropping malformed socket.io event")
			return true
		}

		select {
		case c.events <- ev:
		case <-c.done:
			return false
		}
	case PacketAck:
		var args []json.RawMessage
		if err := json.Unmarshal(p.Data, &args); err != nil {
			c.logger.Warn().Err(err).Int("ack_id", p.AckID).Msg("Dropping malformed socket.io ack")
			return true
		}

		c.ackMu.Lock()
		ch, ok := c.acks[p.AckID]
		delete(c.acks, p.AckID)
		c.ackMu.Unlock()

		if ok {
			ch <- args
		}
	case PacketDisconnect:
		c.shutdown(ErrClosed)
		return false
	case PacketConnect, PacketConnectError, PacketBinaryEvent, PacketBinaryAck:
	}

	return true
}

// Emit sends an event without waiting for an acknowledgement.
func (c *Client) Emit(event string, args ...interface{}) error {
	p, err := EventPacket(NoAck, event, args...)
	if err != nil {
		return err
	}

	return c.send(p)
}

// Call sends an event and waits for the server's acknowledgement arguments.
func (c *Client) Call(ctx context.Context, event string, args ...interface{}) ([]json.RawMessage, error) {
	ch := make(chan []json.RawMessage, 1)

	c.ackMu.Lock()
	id := c.nextAck
	c.nextAck++
	c.acks[id] = ch
	c.ackMu.Unlock()

	release := func() {
		c.ackMu.Lock()
		delete(c.acks, id)
		c.ackMu.Unlock()
	}

	p, err := EventPacket(id, event, args...)
	if err != nil {
		release()
		return nil, err
	}

	if err := c.send(p); err != nil {
		release()
		return nil, err
	}

	select {
	case reply := <-ch:
		return reply, nil
	case <-ctx.Done():
		release()
		return nil, ctx.Err()
	case <-c.done:
		release()
		return nil, c.Err()
	}
}

func (c *Client) send(p Packet) error {
	select {
	case <-c.done:
		return c.Err()
	default:
	}

	return c.writeFrame(p.Encode())
}

// Next blocks until the next server event arrives. After the connection ends
// it drains buffered events and then returns the terminal error.
func (c *Client) Next(ctx context.Context) (Event, error) {
	select {
	case ev := <-c.events:
		return ev, nil
	default:
	}

	select {
	case ev := <-c.events:
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case <-c.done:
		select {
		case ev := <-c.events:
			return ev, nil
		default:
			return Event{}, c.Err()
		}
	}
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns why the connection ended, or nil while it is open.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()

	return c.err
}

// Close leaves the namespace and closes the websocket.
func (c *Client) Close() error {
	select {
	case <-c.done:
		return nil
	default:
	}

	_ = c.writeFrame(Packet{Type: PacketDisconnect, AckID: NoAck}.Encode())

	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()

	c.shutdown(ErrClosed)

	return nil
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		if err == nil || !errors.Is(err, ErrClosed) {
			err = fmt.Errorf("%w: %w", ErrClosed, err)
		}

		c.errMu.Lock()
		c.err = err
		c.errMu.Unlock()

		close(c.done)
		_ = c.conn.Close()
	})
}

func truncate(s string) string {
	if len(s) > 128 {
		return s[:128] + "..."
	}

	return s
}
