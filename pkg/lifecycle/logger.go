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

// Package lifecycle wires process start-up and shutdown: loggers, signal
// handling and the set of long-running services.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/carverauto/dashgate/pkg/logger"
)

// CreateLogger creates a new logger instance with the provided configuration.
// This returns a logger that can be injected into services.
func CreateLogger(ctx context.Context, config *logger.Config) (logger.Logger, error) {
	return logger.New(ctx, config)
}

// CreateComponentLogger creates a logger tagged with component.
func CreateComponentLogger(ctx context.Context, component string, config *logger.Config) (logger.Logger, error) {
	base, err := logger.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s logger: %w", component, err)
	}

	return logger.Component(base, component), nil
}

// ShutdownLogger shuts down the logger, flushing any pending logs.
func ShutdownLogger() error {
	return logger.Shutdown()
}
