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

package relay

import (
	"sync"
	"time"

	"github.com/carverauto/dashgate/pkg/logger"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// loginBreaker stops the Hub from retrying a rejected upstream login on every
// reconnect. After threshold consecutive failures, logins are skipped until
// cooldown has passed; one trial login is then allowed.
type loginBreaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time
	logger    logger.Logger

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
}

// newLoginBreaker returns a breaker; threshold <= 0 disables it.
func newLoginBreaker(threshold int, cooldown time.Duration, log logger.Logger) *loginBreaker {
	return &loginBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		logger:    log,
	}
}

// Allow reports whether a login attempt should be made now.
func (b *loginBreaker) Allow() bool {
	if b.threshold <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed, breakerHalfOpen:
		return true
	case breakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}

		b.state = breakerHalfOpen
		b.logger.Info().Msg("Login breaker half-open, allowing trial login")

		return true
	default:
		return false
	}
}

// Record feeds the outcome of a login attempt back into the breaker.
func (b *loginBreaker) Record(err error) {
	if b.threshold <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state != breakerClosed {
			b.logger.Info().Msg("Login breaker closed after successful login")
		}

		b.state = breakerClosed
		b.failures = 0

		return
	}

	b.failures++

	if b.state == breakerHalfOpen || b.failures >= b.threshold {
		if b.state != breakerOpen {
			b.logger.Warn().
				Int("failure_count", b.failures).
				Dur("cooldown", b.cooldown).
				Msg("Login breaker opened")
		}

		b.state = breakerOpen
		b.openedAt = b.now()
	}
}

func (b *loginBreaker) State() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}
