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

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Heartbeat status codes reported by the uptime monitor.
const (
	StatusDown        = 0
	StatusUp          = 1
	StatusPending     = 2
	StatusMaintenance = 3
)

// Monitor is one check configured in the uptime monitor.
type Monitor struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	URL      string       `json:"url,omitempty"`
	Type     string       `json:"type"`
	Hostname string       `json:"hostname,omitempty"`
	Port     int          `json:"port,omitempty"`
	Keyword  string       `json:"keyword,omitempty"`
	Interval int          `json:"interval"`
	Active   FlexBool     `json:"active"`
	Weight   int          `json:"weight"`
	Status   int          `json:"status"`
	Ping     float64      `json:"ping"`
	Tags     []MonitorTag `json:"tags"`
}

// MonitorTag is a label attached to a monitor.
type MonitorTag struct {
	ID    int    `json:"id"`
	TagID int    `json:"tag_id"`
	Slug  string `json:"slug,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Value string `json:"value"`
}

// Heartbeat is the result of one check of one monitor.
type Heartbeat struct {
	MonitorID int     `json:"monitorID"`
	Status    int     `json:"status"`
	Time      string  `json:"time"`
	Msg       string  `json:"msg"`
	Ping      float64 `json:"ping"`
}

// Uptime is a monitor's availability over a period given in hours.
type Uptime struct {
	MonitorID int     `json:"monitorID"`
	Period    int     `json:"period"`
	Percent   float64 `json:"percent"`
}

// FlexBool decodes JSON booleans as well as 0/1 numbers and their string forms.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(bytes.TrimSpace(data)), `"`)

	switch strings.ToLower(raw) {
	case "true", "1":
		*b = true
	case "false", "0", "", "null":
		*b = false
	default:
		return fmt.Errorf("%w: %s", errInvalidFlexValue, raw)
	}

	return nil
}

// FlexInt decodes JSON integers and numeric strings.
type FlexInt int

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	f, err := decodeFlexNumber(data)
	if err != nil {
		return err
	}

	*i = FlexInt(f)

	return nil
}

// FlexFloat decodes JSON numbers and numeric strings.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	v, err := decodeFlexNumber(data)
	if err != nil {
		return err
	}

	*f = FlexFloat(v)

	return nil
}

func decodeFlexNumber(data []byte) (float64, error) {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return n.Float64()
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, fmt.Errorf("%w: %s", errInvalidFlexValue, data)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidFlexValue, s)
	}

	return v, nil
}
