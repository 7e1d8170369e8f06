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

// Package config loads dashgate configuration from defaults, an optional JSON
// file, legacy deployment variables and prefixed environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/carverauto/dashgate/pkg/logger"
	"github.com/carverauto/dashgate/pkg/models"
)

var errInvalidConfigSource = errors.New("invalid CONFIG_SOURCE value")

const (
	configSourceFile = "file"
	configSourceEnv  = "env"

	// DefaultEnvPrefix namespaces environment overrides, e.g. DASHGATE_LISTEN_ADDR.
	DefaultEnvPrefix = "DASHGATE_"
)

// ConfigLoader populates dst from a source identified by path.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by configuration types that can check themselves.
type Validator interface {
	Validate() error
}

// Config holds the configuration loading dependencies.
type Config struct {
	fileLoader ConfigLoader
	envLoader  ConfigLoader
	logger     logger.Logger
}

// NewConfig returns a loader that reads JSON files and DASHGATE_ variables.
// CONFIG_ENV_PREFIX overrides the prefix.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = logger.NewTestLogger()
	}

	prefix := os.Getenv("CONFIG_ENV_PREFIX")
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	return &Config{
		fileLoader: &FileConfigLoader{},
		envLoader:  NewEnvConfigLoader(log, prefix),
		logger:     log,
	}
}

// Default returns the configuration used when nothing is overridden.
func Default() *models.Config {
	return &models.Config{
		ListenAddr:      ":3000",
		UpstreamTimeout: models.Duration(30 * time.Second),
		CORS: models.CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Targets: models.TargetsConfig{
			DNSFilter: models.TargetConfig{URL: "http://pi.hole"},
		},
		Relay: models.RelayConfig{
			ReconnectAttempts:     10,
			ReconnectDelay:        models.Duration(time.Second),
			LoginFailureThreshold: 3,
			LoginCooldown:         models.Duration(time.Minute),
		},
		NATS: models.NATSConfig{
			SubjectPrefix: "dashgate.monitors",
			Source:        "dashgate",
		},
		Logging: logger.DefaultConfig(),
	}
}

// Load builds the effective configuration. Later layers win:
// defaults, JSON file at path (skipped when empty), legacy variables,
// prefixed variables. CONFIG_SOURCE=file disables both environment layers.
func (c *Config) Load(ctx context.Context, path string) (*models.Config, error) {
	cfg := Default()

	source := strings.ToLower(os.Getenv("CONFIG_SOURCE"))

	switch source {
	case "", configSourceEnv, configSourceFile:
	default:
		return nil, fmt.Errorf("%w: %s (expected '%s' or '%s')",
			errInvalidConfigSource, source, configSourceFile, configSourceEnv)
	}

	if path != "" {
		if err := c.fileLoader.Load(ctx, path, cfg); err != nil {
			return nil, err
		}

		c.logger.Info().Str("path", path).Msg("Loaded configuration file")
	}

	if source != configSourceFile {
		applied := ApplyLegacyEnv(cfg)
		if len(applied) > 0 {
			c.logger.Info().Strs("variables", applied).Msg("Applied legacy environment variables")
		}

		if err := c.envLoader.Load(ctx, "", cfg); err != nil {
			return nil, err
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}
