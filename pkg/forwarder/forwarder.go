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

package forwarder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/dashgate/pkg/logger"
	"github.com/carverauto/dashgate/pkg/session"
)

const (
	instrumentationName = "github.com/carverauto/dashgate/pkg/forwarder"
	maxResponseBytes    = 32 << 20
	defaultContentType  = "application/json"
)

// ProxyRequest describes one inbound call to pass through.
type ProxyRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// ProxyResponse mirrors the upstream's final answer.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Attempts is 1, or 2 when the credential was renewed and the call retried.
	Attempts int
}

// forwardedRequestHeaders are copied from the inbound request. Everything else,
// notably the browser's own Authorization and Cookie, is dropped.
//
//nolint:gochecknoglobals // static allow list
var forwardedRequestHeaders = []string{"Content-Type", "Accept", "Accept-Language"}

//nolint:gochecknoglobals // static allow list
var mirroredResponseHeaders = []string{"Content-Type", "Cache-Control", "ETag", "Last-Modified"}

var errResponseTooLarge = errors.New("upstream response exceeds size limit")

type Forwarder struct {
	client           HTTPClient
	maxResponseBytes int64
	logger           logger.Logger
	tracer           trace.Tracer
	requests         metric.Int64Counter
	renewals         metric.Int64Counter
}

// New returns a Forwarder. A nil client uses an *http.Client with timeout.
func New(client HTTPClient, timeout time.Duration, log logger.Logger) *Forwarder {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	meter := otel.Meter(instrumentationName)

	requests, err := meter.Int64Counter("dashgate.forwarder.requests",
		metric.WithDescription("Upstream calls made by the forwarder"))
	if err != nil {
		requests = noop.Int64Counter{}
	}

	renewals, err := meter.Int64Counter("dashgate.forwarder.reauth",
		metric.WithDescription("Credential renewals triggered by 401/403 responses"))
	if err != nil {
		renewals = noop.Int64Counter{}
	}

	return &Forwarder{
		client:           client,
		maxResponseBytes: maxResponseBytes,
		logger:           log,
		tracer:           otel.Tracer(instrumentationName),
		requests:         requests,
		renewals:         renewals,
	}
}

// Forward executes req against target. Any upstream status is returned as a
// response. Errors are ErrCredentialRequired or ErrForwardingFailed.
func (f *Forwarder) Forward(ctx context.Context, target *Target, req *ProxyRequest) (*ProxyResponse, error) {
	ctx, span := f.tracer.Start(ctx, "forwarder.Forward", trace.WithAttributes(
		attribute.String("dashgate.target", target.Name),
		attribute.String("http.request.method", req.Method),
	))
	defer span.End()

	if target.RequireCredential && !target.Sessions.HasCredentialSource() {
		span.SetStatus(codes.Error, ErrCredentialRequired.Error())
		return nil, fmt.Errorf("%s: %w", target.Name, ErrCredentialRequired)
	}

	sess := target.Sessions.Current()
	if sess == nil && target.Sessions.HasCredentialSource() {
		sess = target.Sessions.Acquire(ctx)
	}

	resp, err := f.send(ctx, target, req, sess)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream unreachable")

		return nil, err
	}

	resp.Attempts = 1

	if isAuthRejection(resp.StatusCode) && target.Sessions.Renewable() {
		f.renewals.Add(ctx, 1, metric.WithAttributes(attribute.String("target", target.Name)))

		f.logger.Warn().
			Str("target", target.Name).
			Int("status", resp.StatusCode).
			Msg("Upstream rejected credential, renewing session")

		if fresh := target.Sessions.Acquire(ctx); fresh != nil {
			retry, err := f.send(ctx, target, req, fresh)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "upstream unreachable on retry")

				return nil, err
			}

			retry.Attempts = 2
			resp = retry
		}
	}

	span.SetAttributes(
		attribute.Int("http.response.status_code", resp.StatusCode),
		attribute.Int("dashgate.attempts", resp.Attempts),
	)

	return resp, nil
}

func isAuthRejection(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func (f *Forwarder) send(ctx context.Context, target *Target, req *ProxyRequest, sess *session.Session) (*ProxyResponse, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	outbound, err := http.NewRequestWithContext(ctx, req.Method, target.URL(req.Path, req.RawQuery), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrForwardingFailed, err)
	}

	for _, name := range forwardedRequestHeaders {
		if v := req.Header.Get(name); v != "" {
			outbound.Header.Set(name, v)
		}
	}

	if outbound.Header.Get("Content-Type") == "" {
		outbound.Header.Set("Content-Type", defaultContentType)
	}

	if sess != nil && target.Apply != nil {
		target.Apply(outbound.Header, sess.Credential)
	}

	start := time.Now()

	resp, err := f.client.Do(outbound)
	if err != nil {
		f.countRequest(ctx, target.Name, "error")

		f.logger.Error().Err(err).
			Str("target", target.Name).
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("Proxy request failed")

		return nil, fmt.Errorf("%w: %s: %w", ErrForwardingFailed, target.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxResponseBytes+1))
	if err == nil && int64(len(data)) > f.maxResponseBytes {
		err = fmt.Errorf("%w: %d bytes", errResponseTooLarge, f.maxResponseBytes)
	}

	if err != nil {
		f.countRequest(ctx, target.Name, "error")
		return nil, fmt.Errorf("%w: reading %s response: %w", ErrForwardingFailed, target.Name, err)
	}

	f.countRequest(ctx, target.Name, strconv.Itoa(resp.StatusCode))

	f.logger.Debug().
		Str("target", target.Name).
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Forwarded request")

	header := make(http.Header, len(mirroredResponseHeaders))

	for _, name := range mirroredResponseHeaders {
		if v := resp.Header.Get(name); v != "" {
			header.Set(name, v)
		}
	}

	return &ProxyResponse{StatusCode: resp.StatusCode, Header: header, Body: data}, nil
}

func (f *Forwarder) countRequest(ctx context.Context, target, status string) {
	f.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target", target),
		attribute.String("status", status),
	))
}
