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

package config

import (
	"os"
	"strings"

	"github.com/carverauto/dashgate/pkg/models"
)

type legacyVar struct {
	name  string
	apply func(cfg *models.Config, value string)
}

// legacyVars are the variable names the earlier Node deployment read from .env.
//
//nolint:gochecknoglobals // static table
var legacyVars = []legacyVar{
	{"PORT", func(c *models.Config, v string) { c.ListenAddr = ":" + strings.TrimPrefix(v, ":") }},
	{"VITE_PIHOLE_URL", func(c *models.Config, v string) { c.Targets.DNSFilter.URL = v }},
	{"VITE_PIHOLE_PASSWORD", func(c *models.Config, v string) { c.Targets.DNSFilter.Password = v }},
	{"VITE_BESZEL_URL", func(c *models.Config, v string) { c.Targets.MetricsCollector.URL = v }},
	{"VITE_BESZEL_EMAIL", func(c *models.Config, v string) { c.Targets.MetricsCollector.Username = v }},
	{"VITE_BESZEL_PASSWORD", func(c *models.Config, v string) { c.Targets.MetricsCollector.Password = v }},
	{"VITE_HA_URL", func(c *models.Config, v string) { c.Targets.AutomationHub.URL = v }},
	{"VITE_HA_TOKEN", func(c *models.Config, v string) { c.Targets.AutomationHub.Token = v }},
	{"VITE_UPTIME_KUMA_URL", func(c *models.Config, v string) { c.Relay.URL = v }},
	{"VITE_UPTIME_KUMA_TOKEN", func(c *models.Config, v string) { c.Relay.Token = v }},
	{"VITE_UPTIME_KUMA_USERNAME", func(c *models.Config, v string) { c.Relay.Username = v }},
	{"VITE_UPTIME_KUMA_PASSWORD", func(c *models.Config, v string) { c.Relay.Password = v }},
}

// ApplyLegacyEnv copies any set legacy variables into cfg and returns their names.
// Values are trimmed; the old frontend did the same for tokens.
func ApplyLegacyEnv(cfg *models.Config) []string {
	var applied []string

	for _, lv := range legacyVars {
		value := strings.TrimSpace(os.Getenv(lv.name))
		if value == "" {
			continue
		}

		lv.apply(cfg, value)
		applied = append(applied, lv.name)
	}

	return applied
}
