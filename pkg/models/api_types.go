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

package models

// ErrorResponse is the JSON body returned for failures produced by dashgate
// itself rather than mirrored from an upstream.
type ErrorResponse struct {
	// Error message
	Message string `json:"message" example:"Proxy Request Failed"`
	// HTTP status code
	Status int `json:"status" example:"502"`
}

// RelayStatus reports the realtime relay's connection state.
type RelayStatus struct {
	State       string `json:"state" example:"connected"`
	Subscribers int    `json:"subscribers" example:"2"`
}

// RealtimeFrame is one message pushed to a browser over the realtime socket.
type RealtimeFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}
