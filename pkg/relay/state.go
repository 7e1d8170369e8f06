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

import "errors"

// State is the Hub's upstream connection state.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateClosed
)

var (
	// ErrHubClosed is returned by Subscribe after Close.
	ErrHubClosed = errors.New("relay hub closed")

	errMalformedEvent = errors.New("malformed event payload")
	errLoginRejected  = errors.New("upstream login rejected")
	errLoginSkipped   = errors.New("login breaker open")
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
