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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/dashgate/pkg/logger"
)

var errBoom = errors.New("boom")

func TestRunServicesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var stopped atomic.Int32

	blocker := func(ctx context.Context) error {
		<-ctx.Done()
		stopped.Add(1)

		return ctx.Err()
	}

	done := make(chan error, 1)

	go func() {
		done <- RunServices(ctx, logger.NewTestLogger(),
			Service{Name: "a", Run: blocker},
			Service{Name: "b", Run: blocker},
		)
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("services did not stop")
	}

	assert.Equal(t, int32(2), stopped.Load())
}

func TestRunServicesFirstErrorCancelsOthers(t *testing.T) {
	var cancelled atomic.Bool

	err := RunServices(context.Background(), logger.NewTestLogger(),
		Service{Name: "failing", Run: func(context.Context) error { return errBoom }},
		Service{Name: "waiting", Run: func(ctx context.Context) error {
			<-ctx.Done()
			cancelled.Store(true)

			return nil
		}},
	)

	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "failing")
	assert.True(t, cancelled.Load())
}

func TestCreateComponentLogger(t *testing.T) {
	log, err := CreateComponentLogger(context.Background(), "relay", &logger.Config{Level: "debug", Output: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, log)

	_, err = CreateComponentLogger(context.Background(), "relay", &logger.Config{Level: "loud"})
	require.Error(t, err)
}
