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
	"github.com/carverauto/dashgate/pkg/forwarder"
	"github.com/carverauto/dashgate/pkg/logger"
	"github.com/carverauto/dashgate/pkg/models"
	"github.com/carverauto/dashgate/pkg/session"
)

// Path prefixes the upstreams expose their APIs under.
const (
	dnsFilterBasePath        = "/api"
	metricsCollectorBasePath = ""
	automationHubBasePath    = "/api"
)

// BuildTargets creates the upstream targets named in cfg. Targets without a
// URL are left out. Missing credentials leave a target unauthenticated,
// except automation-hub, which then rejects every request locally.
func BuildTargets(cfg models.TargetsConfig, client session.HTTPClient, log logger.Logger) map[string]*forwarder.Target {
	targets := make(map[string]*forwarder.Target)

	if t := cfg.DNSFilter; t.URL != "" {
		var auth session.Authenticator
		if t.Password != "" {
			auth = session.NewPiholeAuthenticator(t.URL, t.Password, client)
		} else {
			log.Warn().Str("target", TargetDNSFilter).Msg("No password set, forwarding without a session")
		}

		targets[TargetDNSFilter] = forwarder.NewTarget(TargetDNSFilter, t.URL, dnsFilterBasePath,
			session.NewStore(TargetDNSFilter, auth, log), forwarder.PiholeSID)
	}

	if t := cfg.MetricsCollector; t.URL != "" {
		var auth session.Authenticator
		if t.Username != "" && t.Password != "" {
			auth = session.NewPocketBaseAuthenticator(t.URL, t.Username, t.Password, client)
		} else {
			log.Warn().Str("target", TargetMetricsCollector).Msg("No credentials set, forwarding without a token")
		}

		targets[TargetMetricsCollector] = forwarder.NewTarget(TargetMetricsCollector, t.URL, metricsCollectorBasePath,
			session.NewStore(TargetMetricsCollector, auth, log), forwarder.RawAuthorization)
	}

	if t := cfg.AutomationHub; t.URL != "" {
		var auth session.Authenticator
		if t.Token != "" {
			auth = session.StaticToken(t.Token)
		} else {
			log.Warn().Str("target", TargetAutomationHub).Msg("No token set, requests will be rejected")
		}

		target := forwarder.NewTarget(TargetAutomationHub, t.URL, automationHubBasePath,
			session.NewStore(TargetAutomationHub, auth, log), forwarder.BearerAuthorization)
		target.RequireCredential = true

		targets[TargetAutomationHub] = target
	}

	return targets
}
