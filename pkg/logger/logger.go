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

// Package logger provides JSON structured logging using zerolog, with
// optional OTLP export of logs, metrics and traces.
package logger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	errInvalidDuration     = errors.New("invalid duration")
	errFailedToParseCACert = errors.New("failed to parse CA certificate")
)

//nolint:gochecknoglobals // process-wide logger mirrors zerolog/log
var globalLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type Config struct {
	Level      string     `json:"level"`
	Debug      bool       `json:"debug"`
	Output     string     `json:"output"`
	TimeFormat string     `json:"time_format"`
	OTel       OTelConfig `json:"otel"`
}

// Duration accepts "5s" style strings or nanosecond numbers in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)
	default:
		return errInvalidDuration
	}

	return nil
}

// Init configures the global logger, which also becomes zerolog/log's logger.
func Init(ctx context.Context, config *Config) error {
	zl, err := build(ctx, config)
	if err != nil {
		return err
	}

	globalLogger = zl
	log.Logger = zl

	return nil
}

// New builds a standalone Logger without touching global state.
func New(ctx context.Context, config *Config) (Logger, error) {
	zl, err := build(ctx, config)
	if err != nil {
		return nil, err
	}

	return Wrap(zl), nil
}

func build(ctx context.Context, config *Config) (zerolog.Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level, err := parseLevel(config)
	if err != nil {
		return zerolog.Nop(), err
	}

	output, err := buildOutput(ctx, config)
	if err != nil {
		return zerolog.Nop(), err
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger(), nil
}

// buildOutput picks stdout or stderr and tees into the OTLP log pipeline
// when export is enabled with an endpoint.
func buildOutput(ctx context.Context, config *Config) (io.Writer, error) {
	var output io.Writer = os.Stdout

	if config.Output == "stderr" {
		output = os.Stderr
	}

	if !config.OTel.Enabled || config.OTel.Endpoint == "" {
		return output, nil
	}

	otelWriter, err := NewOTELWriter(ctx, config.OTel)
	if err != nil {
		return nil, err
	}

	return zerolog.MultiLevelWriter(output, otelWriter), nil
}

func parseLevel(config *Config) (zerolog.Level, error) {
	if config.Debug {
		return zerolog.DebugLevel, nil
	}

	if config.Level == "" {
		return zerolog.InfoLevel, nil
	}

	return zerolog.ParseLevel(config.Level)
}

// Shutdown flushes the OTLP log and metric pipelines.
func Shutdown() error {
	return ShutdownOTEL()
}

func SetLevel(level zerolog.Level) {
	globalLogger = globalLogger.Level(level)
	log.Logger = globalLogger
}

func SetDebug(debug bool) {
	if debug {
		SetLevel(zerolog.DebugLevel)
		return
	}

	SetLevel(zerolog.InfoLevel)
}

func GetLogger() zerolog.Logger {
	return globalLogger
}
