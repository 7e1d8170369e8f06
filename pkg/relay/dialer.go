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

package relay

//go:generate mockgen -destination=mock_relay.go -package=relay github.com/carverauto/dashgate/pkg/relay Dialer,Conn

import (
	"context"
	"encoding/json"

	"github.com/carverauto/dashgate/pkg/socketio"
)

// Conn is one live upstream event-stream connection.
type Conn interface {
	// Call emits event and waits for its acknowledgement.
	Call(ctx context.Context, event string, args ...interface{}) ([]json.RawMessage, error)
	// Next blocks until the next upstream event or until the connection ends.
	Next(ctx context.Context) (socketio.Event, error)
	Close() error
}

// Dialer opens upstream connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// SocketIODialer dials an Uptime Kuma server over Socket.IO.
type SocketIODialer struct {
	URL     string
	Options []socketio.Option
}

func (d *SocketIODialer) Dial(ctx context.Context) (Conn, error) {
	c, err := socketio.Dial(ctx, d.URL, d.Options...)
	if err != nil {
		return nil, err
	}

	return c, nil
}
