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

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/carverauto/dashgate/pkg/logger"
)

var (
	errInvalidDuration       = errors.New("invalid duration")
	errListenAddrRequired    = errors.New("listen address is required")
	errLoggingConfigRequired = errors.New("logging configuration is required")
	errInvalidTargetURL      = errors.New("invalid upstream url")
	errInvalidReconnect      = errors.New("relay reconnect_attempts must be positive")
	errInvalidFlexValue      = errors.New("invalid value")
)

// Duration is a time.Duration that accepts either a Go duration string or a
// number of nanoseconds in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config is the top-level dashgate configuration.
type Config struct {
	ListenAddr      string         `json:"listen_addr"`
	UpstreamTimeout Duration       `json:"upstream_timeout"`
	CORS            CORSConfig     `json:"cors"`
	Targets         TargetsConfig  `json:"targets"`
	Relay           RelayConfig    `json:"relay"`
	NATS            NATSConfig     `json:"nats"`
	Logging         *logger.Config `json:"logging"`
}

// CORSConfig controls which browser origins may call the API.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins,omitempty"`
	AllowCredentials bool     `json:"allow_credentials,omitempty"`
}

// TargetsConfig holds one entry per proxied upstream service.
type TargetsConfig struct {
	DNSFilter        TargetConfig `json:"dns_filter"`
	MetricsCollector TargetConfig `json:"metrics_collector"`
	AutomationHub    TargetConfig `json:"automation_hub"`
}

// TargetConfig describes how to reach and authenticate against one upstream.
// Which credential fields are used depends on the target.
type TargetConfig struct {
	URL      string `json:"url"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
}

// RelayConfig configures the realtime monitor relay.
type RelayConfig struct {
	URL                   string   `json:"url"`
	Username              string   `json:"username,omitempty"`
	Password              string   `json:"password,omitempty"`
	Token                 string   `json:"token,omitempty"`
	ReconnectAttempts     uint     `json:"reconnect_attempts"`
	ReconnectDelay        Duration `json:"reconnect_delay"`
	LoginFailureThreshold int      `json:"login_failure_threshold"`
	LoginCooldown         Duration `json:"login_cooldown"`
}

// NATSConfig enables publishing of monitor status changes. Publishing is
// disabled when URL is empty.
type NATSConfig struct {
	URL           string `json:"url,omitempty"`
	CredsFile     string `json:"creds_file,omitempty"`
	SubjectPrefix string `json:"subject_prefix,omitempty"`
	Source        string `json:"source,omitempty"`
	// TLS enables TLS to the NATS server when set.
	TLS *NATSTLSConfig `json:"tls,omitempty"`
}

// NATSTLSConfig configures TLS to NATS. CertFile and KeyFile add a client
// certificate; CAFile replaces the system roots.
type NATSTLSConfig struct {
	CertFile   string `json:"cert_file"`
	KeyFile    string `json:"key_file"`
	CAFile     string `json:"ca_file"`
	ServerName string `json:"server_name,omitempty"`
}

// Enabled reports whether a NATS server was configured.
func (n NATSConfig) Enabled() bool {
	return n.URL != ""
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errListenAddrRequired
	}

	if c.Logging == nil {
		return errLoggingConfigRequired
	}

	targets := map[string]string{
		"targets.dns_filter.url":        c.Targets.DNSFilter.URL,
		"targets.metrics_collector.url": c.Targets.MetricsCollector.URL,
		"targets.automation_hub.url":    c.Targets.AutomationHub.URL,
		"relay.url":                     c.Relay.URL,
	}

	for field, raw := range targets {
		if raw == "" {
			continue
		}

		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s=%q", errInvalidTargetURL, field, raw)
		}
	}

	if c.Relay.URL != "" && c.Relay.ReconnectAttempts == 0 {
		return errInvalidReconnect
	}

	return nil
}
