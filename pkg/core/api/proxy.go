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

package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/carverauto/dashgate/pkg/forwarder"
)

const maxRequestBody = 10 << 20

// handleProxy forwards ANY /api/{target}/{rest} to the upstream target.
//
// @Summary Proxy to an upstream service
// @Description Forwards the request to dns-filter, metrics-collector or automation-hub with that service's credential attached.
// @Tags Proxy
// @Param target path string true "dns-filter, metrics-collector, automation-hub (or pihole, beszel, hass)"
// @Param rest path string true "Upstream path"
// @Success 200 {string} string "Upstream response, status and body mirrored"
// @Failure 404 {object} models.ErrorResponse "Unknown target"
// @Failure 413 {object} models.ErrorResponse "Request body too large"
// @Failure 500 {object} models.ErrorResponse "Mandatory credential not configured"
// @Failure 502 {object} models.ErrorResponse "Upstream unreachable"
// @Router /api/{target}/{rest} [get]
// @Router /api/{target}/{rest} [post]
// @Router /api/{target}/{rest} [put]
// @Router /api/{target}/{rest} [patch]
// @Router /api/{target}/{rest} [delete]
func (s *APIServer) handleProxy(w http.ResponseWriter, r *http.Request) {
	segment := mux.Vars(r)["target"]

	name, ok := targetAliases[segment]
	if !ok {
		writeError(w, "Unknown target: "+segment, http.StatusNotFound)
		return
	}

	target, ok := s.targets[name]
	if !ok || s.forwarder == nil {
		writeError(w, name+" is not configured", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}

		writeError(w, "Failed to read request body", http.StatusBadRequest)

		return
	}

	req := &forwarder.ProxyRequest{
		Method:   r.Method,
		Path:     restPath(r, segment),
		RawQuery: r.URL.RawQuery,
		Header:   r.Header,
		Body:     body,
	}

	resp, err := s.forwarder.Forward(r.Context(), target, req)

	switch {
	case errors.Is(err, forwarder.ErrCredentialRequired):
		s.logger.Error().Str("target", name).Msg("Mandatory credential missing")
		writeError(w, name+" token not configured", http.StatusInternalServerError)

		return
	case err != nil:
		s.logger.Error().Err(err).Str("target", name).Str("path", req.Path).Msg("Proxy error")
		writeError(w, "Proxy Request Failed", http.StatusBadGateway)

		return
	}

	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}

	w.WriteHeader(resp.StatusCode)

	if _, err := w.Write(resp.Body); err != nil {
		s.logger.Debug().Err(err).Str("target", name).Msg("Client went away while writing proxy response")
	}
}

// restPath returns the still-escaped path after /api/{segment}/.
func restPath(r *http.Request, segment string) string {
	return strings.TrimPrefix(r.URL.EscapedPath(), "/api/"+segment+"/")
}
