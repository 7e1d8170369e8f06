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

// Package app assembles the dashgate process from its configuration.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/carverauto/dashgate/pkg/config"
	"github.com/carverauto/dashgate/pkg/core/api"
	"github.com/carverauto/dashgate/pkg/forwarder"
	"github.com/carverauto/dashgate/pkg/lifecycle"
	"github.com/carverauto/dashgate/pkg/logger"
	"github.com/carverauto/dashgate/pkg/models"
	"github.com/carverauto/dashgate/pkg/natsutil"
	"github.com/carverauto/dashgate/pkg/relay"
	"github.com/carverauto/dashgate/pkg/session"
	"github.com/carverauto/dashgate/pkg/socketio"
	"github.com/carverauto/dashgate/pkg/version"
)

const serviceName = "dashgate"

// Options contains runtime configuration derived from CLI flags.
type Options struct {
	ConfigPath string
}

// Run boots dashgate and blocks until it is signalled to stop.
func Run(ctx context.Context, opts Options) error {
	bootLogger := logger.NewTestLogger()

	cfg, err := config.NewConfig(bootLogger).Load(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	mainLogger, err := lifecycle.CreateComponentLogger(ctx, "dashgate-main", cfg.Logging)
	if err != nil {
		return err
	}

	defer func() {
		if shutdownErr := lifecycle.ShutdownLogger(); shutdownErr != nil {
			mainLogger.Error().Err(shutdownErr).Msg("Error shutting down logger")
		}
	}()

	telemetry := logger.TelemetryConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.GetVersion(),
		OTel:           &cfg.Logging.OTel,
		Logger:         mainLogger,
	}

	tp, err := logger.InitializeTracing(ctx, telemetry)
	if err != nil {
		return err
	}

	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			mainLogger.Error().Err(err).Msg("Error shutting down tracer provider")
		}
	}()

	// The meter provider is flushed by ShutdownLogger.
	if _, err := logger.InitializeMetrics(ctx, telemetry); err != nil && !errors.Is(err, logger.ErrOTelMetricsDisabled) {
		return err
	}

	apiOptions := []func(*api.APIServer){
		api.WithLogger(logger.Component(mainLogger, "api")),
		api.WithForwarder(
			forwarder.New(nil, time.Duration(cfg.UpstreamTimeout), logger.Component(mainLogger, "forwarder")),
			api.BuildTargets(cfg.Targets, session.NewHTTPClient(), logger.Component(mainLogger, "session")),
		),
	}

	var services []lifecycle.Service

	if cfg.Relay.URL != "" {
		hub := newHub(cfg.Relay, logger.Component(mainLogger, "relay"))

		defer func() {
			if err := hub.Close(); err != nil {
				mainLogger.Warn().Err(err).Msg("Error closing relay hub")
			}
		}()

		apiOptions = append(apiOptions, api.WithRealtimeHub(hub))

		if cfg.NATS.Enabled() {
			svc, err := statusPublisherService(cfg.NATS, hub, logger.Component(mainLogger, "nats"))
			if err != nil {
				return err
			}

			services = append(services, svc)
		}
	} else {
		mainLogger.Info().Msg("No relay url configured, realtime endpoint disabled")
	}

	apiServer := api.NewAPIServer(cfg.CORS, apiOptions...)

	services = append(services, lifecycle.Service{
		Name: "http",
		Run: func(ctx context.Context) error {
			return apiServer.Start(ctx, cfg.ListenAddr)
		},
	})

	mainLogger.Info().
		Str("version", version.GetFullVersion()).
		Str("listen_addr", cfg.ListenAddr).
		Msg("Starting dashgate")

	return lifecycle.RunServices(ctx, mainLogger, services...)
}

func newHub(cfg models.RelayConfig, log logger.Logger) *relay.Hub {
	dialer := &relay.SocketIODialer{
		URL:     cfg.URL,
		Options: []socketio.Option{socketio.WithLogger(log)},
	}

	return relay.NewHub(dialer, relay.Config{
		Credentials: relay.Credentials{
			Token:    cfg.Token,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		ReconnectAttempts:     cfg.ReconnectAttempts,
		ReconnectDelay:        time.Duration(cfg.ReconnectDelay),
		LoginFailureThreshold: cfg.LoginFailureThreshold,
		LoginCooldown:         time.Duration(cfg.LoginCooldown),
	}, log)
}

// statusPublisherService subscribes a NATS status publisher to hub for the
// lifetime of the returned service.
func statusPublisherService(cfg models.NATSConfig, hub *relay.Hub, log logger.Logger) (lifecycle.Service, error) {
	nc, err := natsutil.Connect(cfg, log)
	if err != nil {
		return lifecycle.Service{}, err
	}

	publisher := natsutil.NewStatusPublisher(nc, cfg.SubjectPrefix, cfg.Source, log)

	return lifecycle.Service{
		Name: "nats-status",
		Run: func(ctx context.Context) error {
			unsubscribe, err := hub.Subscribe(publisher.Subscriber())
			if err != nil {
				nc.Close()
				return err
			}
			defer unsubscribe()

			<-ctx.Done()

			if err := nc.Drain(); err != nil {
				log.Warn().Err(err).Msg("Error draining NATS connection")
			}

			return nil
		},
	}, nil
}
