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
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/dashgate/pkg/logger"
	"github.com/carverauto/dashgate/pkg/session"
)

// fakePihole issues session ids from sids in order and serves API calls via
// handler. It records every API call it receives.
type fakePihole struct {
	mu      sync.Mutex
	sids    []string
	logins  int
	calls   []*http.Request
	bodies  []string
	handler func(call int, r *http.Request) (int, string)
}

func (p *fakePihole) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r.URL.Path == "/api/auth" {
		sid := p.sids[p.logins]
		p.logins++

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"session": map[string]interface{}{"valid": true, "sid": sid},
		})

		return
	}

	body, _ := io.ReadAll(r.Body)
	p.calls = append(p.calls, r.Clone(context.Background()))
	p.bodies = append(p.bodies, string(body))

	status, payload := p.handler(len(p.calls), r)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(payload))
}

func newPiholeTarget(t *testing.T, p *fakePihole, password string) (*Target, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(p)
	t.Cleanup(server.Close)

	var auth session.Authenticator
	if password != "" {
		auth = session.NewPiholeAuthenticator(server.URL, password, server.Client())
	}

	store := session.NewStore("dns-filter", auth, logger.NewTestLogger())

	return NewTarget("dns-filter", server.URL, "/api", store, PiholeSID), server
}

func TestForward_AcquiresSessionAndAttachesCredential(t *testing.T) {
	pihole := &fakePihole{
		sids: []string{"abc123"},
		handler: func(int, *http.Request) (int, string) {
			return http.StatusOK, `{"total":100}`
		},
	}

	target, server := newPiholeTarget(t, pihole, "secret")
	fwd := New(server.Client(), time.Second, logger.NewTestLogger())

	resp, err := fwd.Forward(context.Background(), target, &ProxyRequest{Method: http.MethodGet, Path: "stats/summary"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"total":100}`, string(resp.Body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, 1, resp.Attempts)

	require.Len(t, pihole.calls, 1)
	call := pihole.calls[0]
	assert.Equal(t, "/api/stats/summary", call.URL.Path)
	assert.Equal(t, "PH_SESSID=abc123", call.Header.Get("Cookie"))
	assert.Equal(t, "abc123", call.Header.Get("sid"))
	assert.Equal(t, 1, pihole.logins)
}

func TestForward_RenewsOnceOnRejection(t *testing.T) {
	pihole := &fakePihole{
		sids: []string{"abc123", "def456"},
		handler: func(call int, _ *http.Request) (int, string) {
			if call == 1 {
				return http.StatusUnauthorized, `{"error":"expired"}`
			}

			return http.StatusOK, `{"ok":true}`
		},
	}

	target, server := newPiholeTarget(t, pihole, "secret")
	fwd := New(server.Client(), time.Second, logger.NewTestLogger())

	resp, err := fwd.Forward(context.Background(), target, &ProxyRequest{
		Method: http.MethodPost,
		Path:   "dns/blocking",
		Body:   []byte(`{"blocking":false}`),
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, 2, resp.Attempts)

	require.Len(t, pihole.calls, 2)
	assert.Equal(t, "def456", pihole.calls[1].Header.Get("sid"))
	assert.Equal(t, []string{`{"blocking":false}`, `{"blocking":false}`}, pihole.bodies)
	assert.Equal(t, "def456", target.Sessions.Current().Credential)
}

func TestForward_SecondRejectionIsFinal(t *testing.T) {
	pihole := &fakePihole{
		sids: []string{"a", "b"},
		handler: func(int, *http.Request) (int, string) {
			return http.StatusForbidden, `{"error":"forbidden"}`
		},
	}

	target, server := newPiholeTarget(t, pihole, "secret")
	fwd := New(server.Client(), time.Second, logger.NewTestLogger())

	resp, err := fwd.Forward(context.Background(), target, &ProxyRequest{Method: http.MethodGet, Path: "history"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Len(t, pihole.calls, 2)
	assert.Equal(t, 2, pihole.logins)
}

func TestForward_NonAuthStatusesAreNotRetried(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError} {
		pihole := &fakePihole{
			sids: []string{"abc123"},
			handler: func(int, *http.Request) (int, string) {
				return status, `{}`
			},
		}

		target, server := newPiholeTarget(t, pihole, "secret")
		fwd := New(server.Client(), time.Second, logger.NewTestLogger())

		resp, err := fwd.Forward(context.Background(), target, &ProxyRequest{Method: http.MethodGet, Path: "x"})
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode)
		assert.Len(t, pihole.calls, 1, "status %d", status)
	}
}

func TestForward_NoCredentialSourceNeverLogsIn(t *testing.T) {
	pihole := &fakePihole{
		handler: func(int, *http.Request) (int, string) {
			return http.StatusUnauthorized, `{}`
		},
	}

	target, server := newPiholeTarget(t, pihole, "")
	fwd := New(server.Client(), time.Second, logger.NewTestLogger())

	resp, err := fwd.Forward(context.Background(), target, &ProxyRequest{Method: http.MethodGet, Path: "stats/summary", RawQuery: "a=1&b=2"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, pihole.logins)
	require.Len(t, pihole.calls, 1)
	assert.Empty(t, pihole.calls[0].Header.Get("Cookie"))
	assert.Equal(t, "a=1&b=2", pihole.calls[0].URL.RawQuery)
}

func TestForward_FailedRenewalReturnsFirstResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	auth := session.NewMockAuthenticator(ctrl)

	gomock.InOrder(
		auth.EXPECT().Login(gomock.Any()).Return("tok", nil),
		auth.EXPECT().Renewable().Return(true),
		auth.EXPECT().Login(gomock.Any()).Return("", errors.New("login down")),
	)

	var calls atomic.Int32

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	store := session.NewStore("metrics-collector", auth, logger.NewTestLogger())
	target := NewTarget("metrics-collector", upstream.URL, "", store, RawAuthorization)

	resp, err := New(nil, time.Second, logger.NewTestLogger()).Forward(context.Background(), target,
		&ProxyRequest{Method: http.MethodGet, Path: "api/collections/systems/records"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, resp.Attempts)
	assert.Equal(t, int32(1), calls.Load())
}

func TestForward_StaticTokenIsNotRenewed(t *testing.T) {
	var calls atomic.Int32

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Bearer ha-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/states", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	store := session.NewStore("automation-hub", session.StaticToken("ha-token"), logger.NewTestLogger())
	target := NewTarget("automation-hub", upstream.URL, "/api", store, BearerAuthorization)
	target.RequireCredential = true

	resp, err := New(nil, time.Second, logger.NewTestLogger()).Forward(context.Background(), target,
		&ProxyRequest{Method: http.MethodGet, Path: "states"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestForward_MissingMandatoryCredential(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockHTTPClient(ctrl)

	store := session.NewStore("automation-hub", nil, logger.NewTestLogger())
	target := NewTarget("automation-hub", "http://ha:8123", "/api", store, BearerAuthorization)
	target.RequireCredential = true

	_, err := New(client, time.Second, logger.NewTestLogger()).Forward(context.Background(), target,
		&ProxyRequest{Method: http.MethodGet, Path: "states"})
	require.ErrorIs(t, err, ErrCredentialRequired)
}

func TestForward_TransportFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockHTTPClient(ctrl)
	client.EXPECT().Do(gomock.Any()).Return(nil, errors.New("dial tcp: connection refused"))

	store := session.NewStore("dns-filter", nil, logger.NewTestLogger())
	target := NewTarget("dns-filter", "http://pi.hole", "/api", store, PiholeSID)

	_, err := New(client, time.Second, logger.NewTestLogger()).Forward(context.Background(), target,
		&ProxyRequest{Method: http.MethodGet, Path: "stats/summary"})
	require.ErrorIs(t, err, ErrForwardingFailed)
}

func TestForward_OversizedResponseFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockHTTPClient(ctrl)
	client.EXPECT().Do(gomock.Any()).DoAndReturn(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader("0123456789")),
		}, nil
	}).Times(2)

	store := session.NewStore("dns-filter", nil, logger.NewTestLogger())
	target := NewTarget("dns-filter", "http://pi.hole", "/api", store, PiholeSID)

	f := New(client, time.Second, logger.NewTestLogger())
	f.maxResponseBytes = 9

	_, err := f.Forward(context.Background(), target, &ProxyRequest{Method: http.MethodGet, Path: "stats/summary"})
	require.ErrorIs(t, err, ErrForwardingFailed)
	require.ErrorIs(t, err, errResponseTooLarge)

	f.maxResponseBytes = 10

	resp, err := f.Forward(context.Background(), target, &ProxyRequest{Method: http.MethodGet, Path: "stats/summary"})
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(resp.Body))
}

func TestForward_HeaderSubset(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockHTTPClient(ctrl)

	client.EXPECT().Do(gomock.Any()).DoAndReturn(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("X-Forwarded-For"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		return &http.Response{
			StatusCode: http.StatusTeapot,
			Header:     http.Header{"Content-Type": {"text/plain"}, "Set-Cookie": {"x=y"}},
			Body:       io.NopCloser(strings.NewReader("short and stout")),
		}, nil
	})

	inbound := http.Header{}
	inbound.Set("Content-Type", "text/plain")
	inbound.Set("Accept", "application/json")
	inbound.Set("Authorization", "Bearer browser")
	inbound.Set("X-Forwarded-For", "10.0.0.1")

	store := session.NewStore("automation-hub", session.StaticToken("tok"), logger.NewTestLogger())
	target := NewTarget("automation-hub", "http://ha:8123", "/api", store, BearerAuthorization)

	resp, err := New(client, time.Second, logger.NewTestLogger()).Forward(context.Background(), target,
		&ProxyRequest{Method: http.MethodPost, Path: "services/homeassistant/turn_on", Header: inbound, Body: []byte("x")})
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "short and stout", string(resp.Body))
	assert.Empty(t, resp.Header.Get("Set-Cookie"))
	assert.Equal(t, "Bearer browser", inbound.Get("Authorization"))
}

func TestTargetURL(t *testing.T) {
	store := session.NewStore("x", nil, logger.NewTestLogger())

	assert.Equal(t, "http://pi.hole/api/stats/summary",
		NewTarget("x", "http://pi.hole/", "/api", store, nil).URL("stats/summary", ""))
	assert.Equal(t, "http://beszel:8090/api/collections/systems/records?sort=name&perPage=500",
		NewTarget("x", "http://beszel:8090", "", store, nil).URL("api/collections/systems/records", "sort=name&perPage=500"))
}
