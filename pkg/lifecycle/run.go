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

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/dashgate/pkg/logger"
)

// Service is a named long-running task. Run blocks until ctx is cancelled
// or the service fails.
type Service struct {
	Name string
	Run  func(ctx context.Context) error
}

// RunServices runs every service until SIGINT/SIGTERM, ctx cancellation, or
// the first service error. The remaining services are then cancelled and
// awaited. A clean shutdown returns nil.
func RunServices(ctx context.Context, log logger.Logger, services ...Service) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	grp, groupCtx := errgroup.WithContext(ctx)

	for _, svc := range services {
		grp.Go(func() error {
			log.Info().Str("service", svc.Name).Msg("Starting service")

			err := svc.Run(groupCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Str("service", svc.Name).Msg("Service failed")
				return fmt.Errorf("%s: %w", svc.Name, err)
			}

			log.Info().Str("service", svc.Name).Msg("Service stopped")

			return nil
		})
	}

	return grp.Wait()
}
