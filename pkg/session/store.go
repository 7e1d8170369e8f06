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

// Package session holds the single active credential for one upstream target
// and knows how to obtain a fresh one.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/carverauto/dashgate/pkg/logger"
)

// Session is a credential and the time it was obtained. Sessions are
// immutable; renewal replaces the whole value.
type Session struct {
	Credential string
	AcquiredAt time.Time
}

// Store owns at most one Session for a target. Reads are lock-free.
type Store struct {
	target  string
	auth    Authenticator
	current atomic.Pointer[Session]
	logger  logger.Logger
	now     func() time.Time
	logins  metric.Int64Counter
}

// NewStore returns a Store for target. A nil auth means the target has no
// credential source and Acquire never performs I/O.
func NewStore(target string, auth Authenticator, log logger.Logger) *Store {
	logins, err := otel.Meter("github.com/carverauto/dashgate/pkg/session").Int64Counter(
		"dashgate.session.logins",
		metric.WithDescription("Login exchanges performed against upstream targets"),
	)
	if err != nil {
		logins = noop.Int64Counter{}
	}

	return &Store{
		target: target,
		auth:   auth,
		logger: log,
		now:    time.Now,
		logins: logins,
	}
}

// Target returns the name the store was created for.
func (s *Store) Target() string {
	return s.target
}

// HasCredentialSource reports whether the target authenticates at all.
func (s *Store) HasCredentialSource() bool {
	return s.auth != nil
}

// Renewable reports whether a rejected credential can be replaced by logging in again.
func (s *Store) Renewable() bool {
	return s.auth != nil && s.auth.Renewable()
}

// Current returns the active session or nil.
func (s *Store) Current() *Session {
	return s.current.Load()
}

// Acquire logs in and replaces the active session. It returns nil when the
// target has no credential source or the login fails; failures are logged
// and leave any previous session in place.
func (s *Store) Acquire(ctx context.Context) *Session {
	if s.auth == nil {
		return nil
	}

	credential, err := s.auth.Login(ctx)
	if err != nil {
		s.logins.Add(ctx, 1, metric.WithAttributes(
			attribute.String("target", s.target),
			attribute.String("outcome", "failure"),
		))

		s.logger.Error().Err(err).Str("target", s.target).Msg("Login failed, no session available")

		return nil
	}

	sess := &Session{Credential: credential, AcquiredAt: s.now()}
	s.current.Store(sess)

	s.logins.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target", s.target),
		attribute.String("outcome", "success"),
	))

	s.logger.Info().Str("target", s.target).Msg("Acquired upstream session")

	return sess
}
