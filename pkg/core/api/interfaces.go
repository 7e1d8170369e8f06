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

// Package api pkg/core/api/interfaces.go
package api

import (
	"context"

	"github.com/carverauto/dashgate/pkg/forwarder"
	"github.com/carverauto/dashgate/pkg/relay"
)

//go:generate mockgen -destination=mock_api_server.go -package=api github.com/carverauto/dashgate/pkg/core/api Forwarder,RealtimeHub

// Forwarder executes proxied requests against an upstream target.
type Forwarder interface {
	Forward(ctx context.Context, target *forwarder.Target, req *forwarder.ProxyRequest) (*forwarder.ProxyResponse, error)
}

// RealtimeHub is the relay the realtime websocket endpoint subscribes to.
type RealtimeHub interface {
	Subscribe(sub relay.Subscriber) (func(), error)
	State() relay.State
	Subscribers() int
}
