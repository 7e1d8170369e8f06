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

package logger

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultServiceName  = "dashgate"
	defaultBatchTimeout = 5 * time.Second
)

// DefaultConfig reads LOG_LEVEL, DEBUG, LOG_OUTPUT and LOG_TIME_FORMAT, plus
// the standard OTEL_* exporter variables.
func DefaultConfig() *Config {
	return &Config{
		Level:      envString("LOG_LEVEL", "info"),
		Debug:      envBool("DEBUG", false),
		Output:     envString("LOG_OUTPUT", "stdout"),
		TimeFormat: envString("LOG_TIME_FORMAT", ""),
		OTel:       DefaultOTelConfig(),
	}
}

func DefaultOTelConfig() OTelConfig {
	batchTimeout := defaultBatchTimeout
	if d, err := time.ParseDuration(os.Getenv("OTEL_EXPORTER_OTLP_TIMEOUT")); err == nil {
		batchTimeout = d
	}

	return OTelConfig{
		Enabled:      envBool("OTEL_ENABLED", false),
		Endpoint:     envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Headers:      parseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		ServiceName:  envString("OTEL_SERVICE_NAME", defaultServiceName),
		BatchTimeout: Duration(batchTimeout),
		Insecure:     envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
	}
}

// parseHeaders decodes the OTLP "k1=v1,k2=v2" header list.
func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}

		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return headers
}

func envString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}

	return fallback
}

// envBool accepts strconv booleans plus "yes" and "on".
func envBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))

	switch value {
	case "":
		return fallback
	case "yes", "on":
		return true
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}

	return b
}
