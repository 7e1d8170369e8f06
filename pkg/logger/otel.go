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
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"google.golang.org/grpc/credentials"
)

var (
	ErrOTelLoggingDisabled  = errors.New("OTel logging is disabled")
	ErrOTelEndpointRequired = errors.New("OTel endpoint is required when enabled")
)

const maxAttributeValueLength = 4096

type OTelConfig struct {
	Enabled      bool              `json:"enabled"`
	Endpoint     string            `json:"endpoint"`
	Headers      map[string]string `json:"headers"`
	ServiceName  string            `json:"service_name"`
	BatchTimeout Duration          `json:"batch_timeout"`
	Insecure     bool              `json:"insecure"`
	TLS          *TLSConfig        `json:"tls,omitempty"`
}

type TLSConfig struct {
	CertFile string `json:"cert_file"`
	KeyFile  string `json:"key_file"`
	CAFile   string `json:"ca_file,omitempty"`
}

//nolint:gochecknoglobals // shut down by ShutdownOTEL
var (
	logProviderMu sync.Mutex
	logProvider   *sdklog.LoggerProvider
)

// OTelWriter is a zerolog output that re-emits each JSON line as an OTLP log
// record. The component field selects the instrumentation scope.
type OTelWriter struct {
	ctx      context.Context
	provider *sdklog.LoggerProvider

	mu     sync.Mutex
	scopes map[string]otellog.Logger
}

func NewOTELWriter(ctx context.Context, config OTelConfig) (*OTelWriter, error) {
	if !config.Enabled {
		return nil, ErrOTelLoggingDisabled
	}

	if config.Endpoint == "" {
		return nil, ErrOTelEndpointRequired
	}

	settings, err := newExporterSettings(&config)
	if err != nil {
		return nil, err
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(settings.endpoint)}

	switch {
	case settings.insecure:
		opts = append(opts, otlploggrpc.WithInsecure())
	case settings.tls != nil:
		opts = append(opts, otlploggrpc.WithTLSCredentials(credentials.NewTLS(settings.tls)))
	}

	if len(settings.headers) > 0 {
		opts = append(opts, otlploggrpc.WithHeaders(settings.headers))
	}

	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	res, err := newResource(ctx, config.ServiceName, "")
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(config.BatchTimeout)
	if timeout <= 0 {
		timeout = defaultBatchTimeout
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter, sdklog.WithExportTimeout(timeout))),
	)

	logProviderMu.Lock()
	logProvider = provider
	logProviderMu.Unlock()

	global.SetLoggerProvider(provider)

	return &OTelWriter{
		ctx:      ctx,
		provider: provider,
		scopes:   make(map[string]otellog.Logger),
	}, nil
}

func (w *OTelWriter) scope(name string) otellog.Logger {
	if name == "" {
		name = defaultServiceName
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	l, ok := w.scopes[name]
	if !ok {
		l = w.provider.Logger(name)
		w.scopes[name] = l
	}

	return l
}

// Write never fails; lines that are not JSON objects are dropped.
func (w *OTelWriter) Write(p []byte) (int, error) {
	var entry map[string]interface{}
	if err := json.Unmarshal(p, &entry); err != nil {
		return len(p), nil
	}

	var record otellog.Record

	if ts, ok := entry[zerolog.TimestampFieldName].(string); ok {
		if parsed, err := time.Parse(zerolog.TimeFieldFormat, ts); err == nil {
			record.SetTimestamp(parsed)
		}

		delete(entry, zerolog.TimestampFieldName)
	}

	if lvl, ok := entry[zerolog.LevelFieldName].(string); ok {
		record.SetSeverity(severityOf(lvl))
		record.SetSeverityText(lvl)
		delete(entry, zerolog.LevelFieldName)
	}

	if msg, ok := entry[zerolog.MessageFieldName].(string); ok {
		record.SetBody(otellog.StringValue(msg))
		delete(entry, zerolog.MessageFieldName)
	}

	component, _ := entry["component"].(string)
	delete(entry, "component")

	for key, value := range entry {
		record.AddAttributes(attributeOf(key, value))
	}

	w.scope(component).Emit(w.ctx, record)

	return len(p), nil
}

// attributeOf keeps JSON scalars typed and flattens anything else to JSON text.
func attributeOf(key string, value interface{}) otellog.KeyValue {
	switch v := value.(type) {
	case nil:
		return otellog.String(key, "null")
	case string:
		return otellog.String(key, truncate(v))
	case bool:
		return otellog.Bool(key, v)
	case float64:
		return otellog.Float64(key, v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return otellog.String(key, truncate(fmt.Sprint(v)))
		}

		return otellog.String(key, truncate(string(raw)))
	}
}

func truncate(value string) string {
	if len(value) <= maxAttributeValueLength {
		return value
	}

	cut := value[:maxAttributeValueLength-3]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}

	return cut + "..."
}

func severityOf(level string) otellog.Severity {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return otellog.SeverityInfo
	}

	switch lvl {
	case zerolog.TraceLevel:
		return otellog.SeverityTrace
	case zerolog.DebugLevel:
		return otellog.SeverityDebug
	case zerolog.WarnLevel:
		return otellog.SeverityWarn
	case zerolog.ErrorLevel:
		return otellog.SeverityError
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return otellog.SeverityFatal
	default:
		return otellog.SeverityInfo
	}
}

// ShutdownOTEL flushes the log and metric pipelines.
func ShutdownOTEL() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logProviderMu.Lock()
	provider := logProvider
	logProvider = nil
	logProviderMu.Unlock()

	var errs []error

	if provider != nil {
		errs = append(errs, provider.Shutdown(ctx))
	}

	errs = append(errs, shutdownMeterProvider(ctx))

	return errors.Join(errs...)
}
