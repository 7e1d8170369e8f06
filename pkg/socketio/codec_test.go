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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketEncode(t *testing.T) {
	tests := []struct {
		name   string
		packet Packet
		want   string
	}{
		{
			name:   "connect default namespace",
			packet: Packet{Type: PacketConnect, AckID: NoAck},
			want:   "40",
		},
		{
			name:   "event with ack id",
			packet: Packet{Type: PacketEvent, AckID: 7, Data: json.RawMessage(`["loginByToken","abc"]`)},
			want:   `427["loginByToken","abc"]`,
		},
		{
			name:   "custom namespace",
			packet: Packet{Type: PacketEvent, Namespace: "/admin", AckID: NoAck, Data: json.RawMessage(`["x"]`)},
			want:   `42/admin,["x"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.packet.Encode())
		})
	}
}

func TestEventPacket(t *testing.T) {
	p, err := EventPacket(3, "login", map[string]string{"username": "admin"})
	require.NoError(t, err)

	assert.Equal(t, PacketEvent, p.Type)
	assert.Equal(t, 3, p.AckID)
	assert.JSONEq(t, `["login",{"username":"admin"}]`, string(p.Data))
}

func TestDecodePacket(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantType  PacketType
		wantNS    string
		wantAck   int
		wantData  string
		expectErr bool
	}{
		{name: "connect reply", input: `0{"sid":"x1"}`, wantType: PacketConnect, wantNS: "/", wantAck: NoAck, wantData: `{"sid":"x1"}`},
		{name: "event", input: `2["heartbeat",{"monitorID":1}]`, wantType: PacketEvent, wantNS: "/", wantAck: NoAck, wantData: `["heartbeat",{"monitorID":1}]`},
		{name: "ack", input: `312[{"ok":true}]`, wantType: PacketAck, wantNS: "/", wantAck: 12, wantData: `[{"ok":true}]`},
		{name: "namespaced event with ack", input: `2/admin,5["x"]`, wantType: PacketEvent, wantNS: "/admin", wantAck: 5, wantData: `["x"]`},
		{name: "namespace only", input: `1/admin`, wantType: PacketDisconnect, wantNS: "/admin", wantAck: NoAck},
		{name: "disconnect", input: `1`, wantType: PacketDisconnect, wantNS: "/", wantAck: NoAck},
		{name: "empty", input: ``, expectErr: true},
		{name: "unknown type", input: `9[]`, expectErr: true},
		{name: "binary", input: `51-["x",{"_placeholder":true,"num":0}]`, expectErr: true},
		{name: "broken json", input: `2["heartbeat",`, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodePacket(tt.input)
			if tt.expectErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, tt.wantNS, p.Namespace)
			assert.Equal(t, tt.wantAck, p.AckID)

			if tt.wantData == "" {
				assert.Empty(t, p.Data)
			} else {
				assert.JSONEq(t, tt.wantData, string(p.Data))
			}
		})
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	p, err := EventPacket(NoAck, "uptime", 4, 24, 0.995)
	require.NoError(t, err)

	frame := p.Encode()
	require.Equal(t, byte(EngineMessage), frame[0])

	decoded, err := DecodePacket(frame[1:])
	require.NoError(t, err)

	ev, err := DecodeEvent(decoded)
	require.NoError(t, err)

	assert.Equal(t, "uptime", ev.Name)
	assert.Equal(t, NoAck, ev.AckID)
	require.Len(t, ev.Args, 3)
	assert.JSONEq(t, `24`, string(ev.Args[1]))
}

func TestDecodeEventRejectsBadData(t *testing.T) {
	_, err := DecodeEvent(Packet{Type: PacketEvent, Data: json.RawMessage(`[]`)})
	require.ErrorIs(t, err, errBadPayload)

	_, err = DecodeEvent(Packet{Type: PacketEvent, Data: json.RawMessage(`[1,2]`)})
	require.ErrorIs(t, err, errBadPayload)

	_, err = DecodeEvent(Packet{Type: PacketEvent, Data: json.RawMessage(`{"a":1}`)})
	require.ErrorIs(t, err, errBadPayload)
}
