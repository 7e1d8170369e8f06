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
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
)

func TestOTelWriterRequiresEndpoint(t *testing.T) {
	writer, err := NewOTELWriter(context.Background(), OTelConfig{Enabled: false})
	require.ErrorIs(t, err, ErrOTelLoggingDisabled)
	assert.Nil(t, writer)

	writer, err = NewOTELWriter(context.Background(), OTelConfig{Enabled: true})
	require.ErrorIs(t, err, ErrOTelEndpointRequired)
	assert.Nil(t, writer)
}

func TestNewWithOTelEnabledButNoEndpointLogsLocally(t *testing.T) {
	log, err := New(context.Background(), &Config{
		Level:  "info",
		Output: "stderr",
		OTel:   OTelConfig{Enabled: true},
	})
	require.NoError(t, err)

	log.Info().Str("test", "value").Msg("local only")
}

func TestInitializeMetricsDisabled(t *testing.T) {
	_, err := InitializeMetrics(context.Background(), TelemetryConfig{ServiceName: "dashgate"})
	require.ErrorIs(t, err, ErrOTelMetricsDisabled)

	_, err = InitializeMetrics(context.Background(), TelemetryConfig{OTel: &OTelConfig{Enabled: true}})
	require.ErrorIs(t, err, ErrOTelMetricsDisabled)
}

func TestInitializeTracingWithoutExporter(t *testing.T) {
	tp, err := InitializeTracing(context.Background(), TelemetryConfig{
		ServiceName: "dashgate",
		Logger:      NewTestLogger(),
	})
	require.NoError(t, err)
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestExporterSettingsBadCA(t *testing.T) {
	_, err := newExporterSettings(&OTelConfig{
		Endpoint: "collector:4317",
		TLS:      &TLSConfig{CAFile: t.TempDir() + "/missing.pem"},
	})
	require.Error(t, err)

	s, err := newExporterSettings(&OTelConfig{
		Endpoint: "collector:4317",
		Insecure: true,
		TLS:      &TLSConfig{CAFile: "ignored when insecure"},
	})
	require.NoError(t, err)
	assert.True(t, s.insecure)
	assert.Nil(t, s.tls)
}

func TestSeverityOf(t *testing.T) {
	tests := map[string]otellog.Severity{
		"trace":   otellog.SeverityTrace,
		"debug":   otellog.SeverityDebug,
		"info":    otellog.SeverityInfo,
		"warn":    otellog.SeverityWarn,
		"error":   otellog.SeverityError,
		"fatal":   otellog.SeverityFatal,
		"panic":   otellog.SeverityFatal,
		"unknown": otellog.SeverityInfo,
	}

	for level, want := range tests {
		assert.Equal(t, want, severityOf(level), level)
	}
}

func TestAttributeOf(t *testing.T) {
	long := strings.Repeat("x", maxAttributeValueLength+10)

	got := attributeOf("k", long).Value.AsString()
	assert.Len(t, got, maxAttributeValueLength)
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, otellog.KindFloat64, attributeOf("status", 502.0).Value.Kind())
	assert.Equal(t, otellog.KindBool, attributeOf("ok", true).Value.Kind())
	assert.Equal(t, `{"a":1}`, attributeOf("m", map[string]interface{}{"a": 1}).Value.AsString())
	assert.Equal(t, "null", attributeOf("n", nil).Value.AsString())
}
