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
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"

	"github.com/carverauto/dashgate/pkg/version"
)

var ErrOTelMetricsDisabled = errors.New("OTel metrics exporter disabled")

const defaultMetricInterval = 15 * time.Second

//nolint:gochecknoglobals // shut down by ShutdownOTEL
var (
	meterMu       sync.Mutex
	meterProvider *sdkmetric.MeterProvider
)

// TelemetryConfig names the service and points at the OTLP collector.
type TelemetryConfig struct {
	ServiceName    string
	ServiceVersion string
	OTel           *OTelConfig
	Logger         Logger
	// MetricInterval defaults to 15 seconds.
	MetricInterval time.Duration
}

func (c TelemetryConfig) exporting() bool {
	return c.OTel != nil && c.OTel.Enabled && c.OTel.Endpoint != ""
}

// exporterSettings is the part of OTelConfig every OTLP/gRPC exporter shares.
type exporterSettings struct {
	endpoint string
	insecure bool
	tls      *tls.Config
	headers  map[string]string
}

func newExporterSettings(config *OTelConfig) (exporterSettings, error) {
	s := exporterSettings{
		endpoint: config.Endpoint,
		insecure: config.Insecure,
		headers:  config.Headers,
	}

	if !config.Insecure && config.TLS != nil {
		tlsConfig, err := loadTLSConfig(config.TLS)
		if err != nil {
			return s, fmt.Errorf("failed to setup TLS configuration: %w", err)
		}

		s.tls = tlsConfig
	}

	return s, nil
}

func loadTLSConfig(c *TLSConfig) (*tls.Config, error) {
	config := &tls.Config{MinVersion: tls.VersionTLS12}

	if c.CertFile != "" && c.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}

		config.Certificates = []tls.Certificate{cert}
	}

	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errFailedToParseCACert
		}

		config.RootCAs = pool
	}

	return config, nil
}

func newResource(ctx context.Context, serviceName, serviceVersion string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	if serviceVersion == "" {
		serviceVersion = version.GetVersion()
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}

// InitializeTracing installs the global TracerProvider and W3C propagators.
// Spans are exported only when OTel is enabled with an endpoint; otherwise
// they are recorded and dropped. The caller owns tp.Shutdown.
func InitializeTracing(ctx context.Context, config TelemetryConfig) (*sdktrace.TracerProvider, error) {
	res, err := newResource(ctx, config.ServiceName, config.ServiceVersion)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if config.exporting() {
		settings, err := newExporterSettings(config.OTel)
		if err != nil {
			return nil, err
		}

		exporter, err := otlptracegrpc.New(ctx, traceExporterOptions(settings)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}

		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if config.Logger != nil {
		config.Logger.Debug().
			Str("service", config.ServiceName).
			Bool("exporting", config.exporting()).
			Msg("Initialized OpenTelemetry tracing")
	}

	return tp, nil
}

func traceExporterOptions(s exporterSettings) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(s.endpoint)}

	switch {
	case s.insecure:
		opts = append(opts, otlptracegrpc.WithInsecure())
	case s.tls != nil:
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(s.tls)))
	}

	if len(s.headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(s.headers))
	}

	return opts
}

// InitializeMetrics installs a global MeterProvider exporting over OTLP/gRPC.
// Instruments created through otel.Meter before this call are forwarded to
// it by the global delegate. Returns ErrOTelMetricsDisabled when not exporting.
func InitializeMetrics(ctx context.Context, config TelemetryConfig) (*sdkmetric.MeterProvider, error) {
	if !config.exporting() {
		return nil, ErrOTelMetricsDisabled
	}

	meterMu.Lock()
	defer meterMu.Unlock()

	if meterProvider != nil {
		return meterProvider, nil
	}

	settings, err := newExporterSettings(config.OTel)
	if err != nil {
		return nil, err
	}

	exporter, err := otlpmetricgrpc.New(ctx, metricExporterOptions(settings)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := newResource(ctx, config.ServiceName, config.ServiceVersion)
	if err != nil {
		return nil, err
	}

	interval := config.MetricInterval
	if interval <= 0 {
		interval = defaultMetricInterval
	}

	meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)

	otel.SetMeterProvider(meterProvider)

	return meterProvider, nil
}

func metricExporterOptions(s exporterSettings) []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(s.endpoint)}

	switch {
	case s.insecure:
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	case s.tls != nil:
		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(credentials.NewTLS(s.tls)))
	}

	if len(s.headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(s.headers))
	}

	return opts
}

func shutdownMeterProvider(ctx context.Context) error {
	meterMu.Lock()
	defer meterMu.Unlock()

	if meterProvider == nil {
		return nil
	}

	err := meterProvider.Shutdown(ctx)
	meterProvider = nil

	return err
}
