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
	"io"

	"github.com/rs/zerolog"
)

// Logger is the logging surface injected into every component.
type Logger interface {
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	Fatal() *zerolog.Event
	With() zerolog.Context
	WithComponent(component string) zerolog.Logger
	SetLevel(level zerolog.Level)
}

type zerologLogger struct {
	logger zerolog.Logger
}

// Wrap adapts a zerolog.Logger to the Logger interface.
func Wrap(l zerolog.Logger) Logger {
	return &zerologLogger{logger: l}
}

// Component returns a child of l tagged with the component field.
func Component(l Logger, component string) Logger {
	return Wrap(l.WithComponent(component))
}

func (z *zerologLogger) Trace() *zerolog.Event { return z.logger.Trace() }
func (z *zerologLogger) Debug() *zerolog.Event { return z.logger.Debug() }
func (z *zerologLogger) Info() *zerolog.Event  { return z.logger.Info() }
func (z *zerologLogger) Warn() *zerolog.Event  { return z.logger.Warn() }
func (z *zerologLogger) Error() *zerolog.Event { return z.logger.Error() }
func (z *zerologLogger) Fatal() *zerolog.Event { return z.logger.Fatal() }
func (z *zerologLogger) With() zerolog.Context { return z.logger.With() }

func (z *zerologLogger) WithComponent(component string) zerolog.Logger {
	return z.logger.With().Str("component", component).Logger()
}

func (z *zerologLogger) SetLevel(level zerolog.Level) {
	z.logger = z.logger.Level(level)
}

// NewTestLogger creates a no-op logger for testing that discards all output
func NewTestLogger() Logger {
	return Wrap(zerolog.New(io.Discard).Level(zerolog.Disabled))
}

// NewWriterLogger logs JSON lines to w at debug level. Useful in tests that
// assert on log output.
func NewWriterLogger(w io.Writer) Logger {
	return Wrap(zerolog.New(w).Level(zerolog.DebugLevel))
}
