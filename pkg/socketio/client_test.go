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

package socketio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOpen = `0{"sid":"eio-1","upgrades":[],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`

// fakeServer runs an Engine.IO endpoint that completes the handshake and then
// hands the connection to script.
func fakeServer(t *testing.T, connectReply string, script func(t *testing.T, conn *websocket.Conn)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/socket.io/" || r.URL.Query().Get("EIO") != "4" {
			http.NotFound(w, r)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if err := conn.WriteMessage(websocket.TextMessage, []byte(testOpen)); err != nil {
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil || string(msg) != "40" {
			return
		}

		if err := conn.WriteMessage(websocket.TextMessage, []byte(connectReply)); err != nil {
			return
		}

		if script != nil {
			script(t, conn)
		}
	}))

	t.Cleanup(srv.Close)

	return srv
}

func readText(conn *websocket.Conn) string {
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return ""
	}

	return string(msg)
}

func TestDialHandshake(t *testing.T) {
	srv := fakeServer(t, `40{"sid":"sio-1"}`, func(_ *testing.T, conn *websocket.Conn) {
		readText(conn)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := Dial(ctx, srv.URL)
	require.NoError(t, err)

	defer func() { _ = c.Close() }()

	assert.Equal(t, "sio-1", c.SID())
}

func TestDialConnectRefused(t *testing.T) {
	srv := fakeServer(t, `44{"message":"not authorized"}`, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Dial(ctx, srv.URL)
	require.ErrorIs(t, err, ErrConnectRefused)
}

// stalledServer upgrades the connection and then never speaks.
func stalledServer(t *testing.T) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		<-release
	}))

	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	return srv
}

func TestDialHandshakeTimeout(t *testing.T) {
	srv := stalledServer(t)

	start := time.Now()

	_, err := Dial(context.Background(), srv.URL, WithHandshakeTimeout(100*time.Millisecond))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDialCancelDuringHandshake(t *testing.T) {
	srv := stalledServer(t)

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)

	go func() {
		_, err := Dial(ctx, srv.URL)
		errCh <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Dial did not return after cancellation")
	}
}

func TestDialUnsupportedScheme(t *testing.T) {
	_, err := Dial(context.Background(), "ftp://example.com")
	require.Error(t, err)
}

func TestEngineURL(t *testing.T) {
	got, err := engineURL("https://kuma.lan/base/", defaultPath)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "wss://kuma.lan/base/socket.io/?"))
	assert.Contains(t, got, "EIO=4")
	assert.Contains(t, got, "transport=websocket")
}

func TestClientReceivesEventsAndAnswersPing(t *testing.T) {
	pong := make(chan string, 1)

	srv := fakeServer(t, `40{"sid":"sio-1"}`, func(_ *testing.T, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("2"))
		pong <- readText(conn)

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`42["heartbeat",{"monitorID":3,"status":1}]`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`42["uptime",3,24,0.5]`))

		readText(conn)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := Dial(ctx, srv.URL)
	require.NoError(t, err)

	defer func() { _ = c.Close() }()

	ev, err := c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "heartbeat", ev.Name)
	require.Len(t, ev.Args, 1)
	assert.JSONEq(t, `{"monitorID":3,"status":1}`, string(ev.Args[0]))

	ev, err = c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "uptime", ev.Name)
	assert.Len(t, ev.Args, 3)

	select {
	case frame := <-pong:
		assert.Equal(t, "3", frame)
	case <-ctx.Done():
		t.Fatal("server never received pong")
	}
}

func TestClientCall(t *testing.T) {
	srv := fakeServer(t, `40{"sid":"sio-1"}`, func(t *testing.T, conn *websocket.Conn) {
		frame := readText(conn)

		p, err := DecodePacket(strings.TrimPrefix(frame, "4"))
		if err != nil {
			return
		}

		ev, err := DecodeEvent(p)
		if err != nil || ev.Name != "loginByToken" {
			return
		}

		var token string
		_ = json.Unmarshal(ev.Args[0], &token)

		reply := Packet{Type: PacketAck, AckID: p.AckID, Data: json.RawMessage(`[{"ok":true,"token":"` + token + `"}]`)}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(reply.Encode()))

		readText(conn)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := Dial(ctx, srv.URL)
	require.NoError(t, err)

	defer func() { _ = c.Close() }()

	reply, err := c.Call(ctx, "loginByToken", "tok-1")
	require.NoError(t, err)
	require.Len(t, reply, 1)
	assert.JSONEq(t, `{"ok":true,"token":"tok-1"}`, string(reply[0]))
}

func TestClientCallContextCancelled(t *testing.T) {
	srv := fakeServer(t, `40{"sid":"sio-1"}`, func(_ *testing.T, conn *websocket.Conn) {
		readText(conn)
		readText(conn)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := Dial(ctx, srv.URL)
	require.NoError(t, err)

	defer func() { _ = c.Close() }()

	callCtx, callCancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer callCancel()

	_, err = c.Call(callCtx, "login", map[string]string{"username": "u"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientServerDisconnect(t *testing.T) {
	srv := fakeServer(t, `40{"sid":"sio-1"}`, func(_ *testing.T, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`42["info",{"version":"1.23"}]`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`41`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := Dial(ctx, srv.URL)
	require.NoError(t, err)

	ev, err := c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "info", ev.Name)

	select {
	case <-c.Done():
	case <-ctx.Done():
		t.Fatal("client did not observe disconnect")
	}

	_, err = c.Next(ctx)
	require.ErrorIs(t, err, ErrClosed)

	_, err = c.Call(ctx, "login")
	require.ErrorIs(t, err, ErrClosed)
}
