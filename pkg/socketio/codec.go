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
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errEmptyPacket       = errors.New("empty packet")
	errUnknownPacketType = errors.New("unknown packet type")
	errBinaryUnsupported = errors.New("binary packets are not supported")
	errBadPayload        = errors.New("malformed packet payload")
)

// EnginePacketType is the leading digit of every Engine.IO v4 text frame.
type EnginePacketType byte

const (
	EngineOpen    EnginePacketType = '0'
	EngineClose   EnginePacketType = '1'
	EnginePing    EnginePacketType = '2'
	EnginePong    EnginePacketType = '3'
	EngineMessage EnginePacketType = '4'
	EngineUpgrade EnginePacketType = '5'
	EngineNoop    EnginePacketType = '6'
)

// PacketType is a Socket.IO v5 protocol packet type, carried inside an
// Engine.IO message.
type PacketType byte

const (
	PacketConnect      PacketType = '0'
	PacketDisconnect   PacketType = '1'
	PacketEvent        PacketType = '2'
	PacketAck          PacketType = '3'
	PacketConnectError PacketType = '4'
	PacketBinaryEvent  PacketType = '5'
	PacketBinaryAck    PacketType = '6'
)

// NoAck marks a packet that neither requests nor answers an acknowledgement.
const NoAck = -1

// Packet is one decoded Socket.IO packet.
type Packet struct {
	Type      PacketType
	Namespace string
	AckID     int
	Data      json.RawMessage
}

// OpenPayload is the handshake sent by the server in the Engine.IO open packet.
type OpenPayload struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// Encode renders p as an Engine.IO message frame.
func (p Packet) Encode() string {
	var b strings.Builder

	b.WriteByte(byte(EngineMessage))
	b.WriteByte(byte(p.Type))

	if p.Namespace != "" && p.Namespace != "/" {
		b.WriteString(p.Namespace)
		b.WriteByte(',')
	}

	if p.AckID >= 0 {
		b.WriteString(strconv.Itoa(p.AckID))
	}

	b.Write(p.Data)

	return b.String()
}

// EventPacket builds an EVENT packet for name with JSON-encodable args.
func EventPacket(ackID int, name string, args ...interface{}) (Packet, error) {
	payload := make([]interface{}, 0, len(args)+1)
	payload = append(payload, name)
	payload = append(payload, args...)

	data, err := json.Marshal(payload)
	if err != nil {
		return Packet{}, fmt.Errorf("encode %s args: %w", name, err)
	}

	return Packet{Type: PacketEvent, AckID: ackID, Data: data}, nil
}

// DecodePacket parses the Socket.IO packet carried after the Engine.IO
// message prefix.
func DecodePacket(s string) (Packet, error) {
	if s == "" {
		return Packet{}, errEmptyPacket
	}

	p := Packet{Type: PacketType(s[0]), Namespace: "/", AckID: NoAck}
	rest := s[1:]

	switch p.Type {
	case PacketConnect, PacketDisconnect, PacketEvent, PacketAck, PacketConnectError:
	case PacketBinaryEvent, PacketBinaryAck:
		return p, errBinaryUnsupported
	default:
		return p, fmt.Errorf("%w: %q", errUnknownPacketType, s[0])
	}

	if strings.HasPrefix(rest, "/") {
		end := strings.IndexByte(rest, ',')
		if end < 0 {
			p.Namespace = rest
			return p, nil
		}

		p.Namespace = rest[:end]
		rest = rest[end+1:]
	}

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}

	if digits > 0 {
		id, err := strconv.Atoi(rest[:digits])
		if err != nil {
			return p, fmt.Errorf("%w: ack id: %w", errBadPayload, err)
		}

		p.AckID = id
		rest = rest[digits:]
	}

	if rest != "" {
		if !json.Valid([]byte(rest)) {
			return p, fmt.Errorf("%w: %.64s", errBadPayload, rest)
		}

		p.Data = json.RawMessage(rest)
	}

	return p, nil
}

// Event is an EVENT packet split into its name and arguments.
type Event struct {
	Name  string
	Args  []json.RawMessage
	AckID int
}

// DecodeEvent splits an EVENT packet's data array.
func DecodeEvent(p Packet) (Event, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(p.Data, &raw); err != nil || len(raw) == 0 {
		return Event{}, fmt.Errorf("%w: event data must be a non-empty array", errBadPayload)
	}

	var name string
	if err := json.Unmarshal(raw[0], &name); err != nil {
		return Event{}, fmt.Errorf("%w: event name: %w", errBadPayload, err)
	}

	return Event{Name: name, Args: raw[1:], AckID: p.AckID}, nil
}
