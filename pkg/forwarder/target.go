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

//go:generate mockgen -destination=mock_forwarder.go -package=forwarder github.com/carverauto/dashgate/pkg/forwarder HTTPClient

// Package forwarder executes proxied requests against upstream targets,
// attaching the target's session credential and renewing it at most once
// per request when the upstream rejects it.
package forwarder

import (
	"errors"
	"net/http"
	"strings"

	"github.com/carverauto/dashgate/pkg/session"
)

var (
	// ErrForwardingFailed means the upstream could not be reached at all.
	ErrForwardingFailed = errors.New("forwarding failed")
	// ErrCredentialRequired means the target mandates a credential that is not configured.
	ErrCredentialRequired = errors.New("credential required but not configured")
)

// HTTPClient is the subset of *http.Client used for upstream calls.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// CredentialTransport writes credential onto an outbound request's headers.
type CredentialTransport func(h http.Header, credential string)

// PiholeSID sends the session id as the PH_SESSID cookie and the sid header.
func PiholeSID(h http.Header, credential string) {
	h.Set("Cookie", "PH_SESSID="+credential)
	h.Set("sid", credential)
}

// RawAuthorization sends the token unprefixed, as PocketBase expects.
func RawAuthorization(h http.Header, credential string) {
	h.Set("Authorization", credential)
}

// BearerAuthorization sends the token with the Bearer scheme.
func BearerAuthorization(h http.Header, credential string) {
	h.Set("Authorization", "Bearer "+credential)
}

// Target is one upstream service. It is immutable after construction except
// for the session held by Sessions.
type Target struct {
	Name     string
	BaseURL  string
	BasePath string
	Sessions *session.Store
	Apply    CredentialTransport
	// RequireCredential rejects requests locally when no credential source exists.
	RequireCredential bool
}

// NewTarget builds a Target. A store without a credential source leaves the
// target unauthenticated.
func NewTarget(name, baseURL, basePath string, sessions *session.Store, apply CredentialTransport) *Target {
	return &Target{
		Name:     name,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		BasePath: "/" + strings.Trim(basePath, "/"),
		Sessions: sessions,
		Apply:    apply,
	}
}

// URL joins the target's base with path and rawQuery.
func (t *Target) URL(path, rawQuery string) string {
	base := t.BaseURL
	if t.BasePath != "/" {
		base += t.BasePath
	}

	u := base + "/" + strings.TrimLeft(path, "/")
	if rawQuery != "" {
		u += "?" + rawQuery
	}

	return u
}
