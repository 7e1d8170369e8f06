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
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/carverauto/dashgate/pkg/forwarder"
	"github.com/carverauto/dashgate/pkg/logger"
	"github.com/carverauto/dashgate/pkg/models"
)

// Canonical upstream target names.
const (
	TargetDNSFilter        = "dns-filter"
	TargetMetricsCollector = "metrics-collector"
	TargetAutomationHub    = "automation-hub"
)

// targetAliases maps the path segments used by the dashboard frontend to
// canonical target names.
//
//nolint:gochecknoglobals // static lookup table
var targetAliases = map[string]string{
	TargetDNSFilter:        TargetDNSFilter,
	TargetMetricsCollector: TargetMetricsCollector,
	TargetAutomationHub:    TargetAutomationHub,
	"pihole":               TargetDNSFilter,
	"beszel":               TargetMetricsCollector,
	"hass":                 TargetAutomationHub,
}

// APIServer serves the proxy routes, the health check and the realtime
// websocket.
type APIServer struct {
	router     *mux.Router
	corsConfig models.CORSConfig
	logger     logger.Logger

	forwarder Forwarder
	targets   map[string]*forwarder.Target

	hub          RealtimeHub
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	sendBuffer   int
}
