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

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultLoginTimeout = 10 * time.Second
	maxErrorBodyBytes   = 512
)

// NewHTTPClient returns the client used for login exchanges when none is supplied.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultLoginTimeout}
}

// PiholeAuthenticator logs into a Pi-hole v6 API and returns the session id.
type PiholeAuthenticator struct {
	baseURL  string
	password string
	client   HTTPClient
}

func NewPiholeAuthenticator(baseURL, password string, client HTTPClient) *PiholeAuthenticator {
	if client == nil {
		client = NewHTTPClient()
	}

	return &PiholeAuthenticator{
		baseURL:  strings.TrimRight(baseURL, "/"),
		password: password,
		client:   client,
	}
}

type piholeAuthResponse struct {
	Session struct {
		Valid   bool   `json:"valid"`
		SID     string `json:"sid"`
		Message string `json:"message"`
	} `json:"session"`
}

func (p *PiholeAuthenticator) Login(ctx context.Context) (string, error) {
	var resp piholeAuthResponse

	err := postJSON(ctx, p.client, p.baseURL+"/api/auth", map[string]string{"password": p.password}, &resp)
	if err != nil {
		return "", err
	}

	if !resp.Session.Valid {
		return "", fmt.Errorf("%w: %s", errAuthFailed, resp.Session.Message)
	}

	if resp.Session.SID == "" {
		return "", errMissingToken
	}

	return resp.Session.SID, nil
}

func (*PiholeAuthenticator) Renewable() bool { return true }

// PocketBaseAuthenticator logs into a PocketBase users collection, as used by
// the Beszel hub, and returns the auth token.
type PocketBaseAuthenticator struct {
	baseURL  string
	identity string
	password string
	client   HTTPClient
}

func NewPocketBaseAuthenticator(baseURL, identity, password string, client HTTPClient) *PocketBaseAuthenticator {
	if client == nil {
		client = NewHTTPClient()
	}

	return &PocketBaseAuthenticator{
		baseURL:  strings.TrimRight(baseURL, "/"),
		identity: identity,
		password: password,
		client:   client,
	}
}

func (p *PocketBaseAuthenticator) Login(ctx context.Context) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}

	body := map[string]string{"identity": p.identity, "password": p.password}

	if err := postJSON(ctx, p.client, p.baseURL+"/api/collections/users/auth-with-password", body, &resp); err != nil {
		return "", err
	}

	if resp.Token == "" {
		return "", errMissingToken
	}

	return resp.Token, nil
}

func (*PocketBaseAuthenticator) Renewable() bool { return true }

// StaticToken is a long-lived token configured out of band.
type StaticToken string

func (s StaticToken) Login(context.Context) (string, error) {
	if s == "" {
		return "", errNoStaticToken
	}

	return string(s), nil
}

func (StaticToken) Renewable() bool { return false }

func postJSON(ctx context.Context, client HTTPClient, url string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

		return fmt.Errorf("%w: %d, response: %s", errUnexpectedStatusCode, resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}

	return nil
}
