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

package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/carverauto/dashgate/pkg/models"
)

// Upstream event names.
const (
	eventMonitorList   = "monitorList"
	eventHeartbeat     = "heartbeat"
	eventHeartbeatList = "heartbeatList"
	eventUptime        = "uptime"
)

// rawHeartbeat accepts both monitor id spellings and numeric strings.
type rawHeartbeat struct {
	MonitorID      *models.FlexInt   `json:"monitorID"`
	MonitorIDSnake *models.FlexInt   `json:"monitor_id"`
	Status         *models.FlexInt   `json:"status"`
	Time           string            `json:"time"`
	Msg            string            `json:"msg"`
	Ping           *models.FlexFloat `json:"ping"`
}

// normalize converts r, using fallbackID when r carries no monitor id.
func (r rawHeartbeat) normalize(fallbackID int) (models.Heartbeat, error) {
	hb := models.Heartbeat{Time: r.Time, Msg: r.Msg}

	switch {
	case r.MonitorID != nil && *r.MonitorID != 0:
		hb.MonitorID = int(*r.MonitorID)
	case r.MonitorIDSnake != nil && *r.MonitorIDSnake != 0:
		hb.MonitorID = int(*r.MonitorIDSnake)
	default:
		hb.MonitorID = fallbackID
	}

	if hb.MonitorID == 0 {
		return hb, fmt.Errorf("%w: heartbeat without monitor id", errMalformedEvent)
	}

	if r.Status != nil {
		hb.Status = int(*r.Status)
	}

	if r.Ping != nil {
		hb.Ping = float64(*r.Ping)
	}

	return hb, nil
}

func decodeMonitorList(args []json.RawMessage) ([]models.Monitor, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: monitorList without payload", errMalformedEvent)
	}

	var byID map[string]models.Monitor
	if err := json.Unmarshal(args[0], &byID); err != nil {
		var list []models.Monitor
		if errList := json.Unmarshal(args[0], &list); errList != nil {
			return nil, fmt.Errorf("%w: monitorList: %w", errMalformedEvent, err)
		}

		sortMonitors(list)

		return list, nil
	}

	list := make([]models.Monitor, 0, len(byID))

	for key, m := range byID {
		if m.ID == 0 {
			if id, err := strconv.Atoi(key); err == nil {
				m.ID = id
			}
		}

		list = append(list, m)
	}

	sortMonitors(list)

	return list, nil
}

func sortMonitors(list []models.Monitor) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}

func decodeHeartbeat(args []json.RawMessage) (models.Heartbeat, error) {
	if len(args) == 0 {
		return models.Heartbeat{}, fmt.Errorf("%w: heartbeat without payload", errMalformedEvent)
	}

	var raw rawHeartbeat
	if err := json.Unmarshal(args[0], &raw); err != nil {
		return models.Heartbeat{}, fmt.Errorf("%w: heartbeat: %w", errMalformedEvent, err)
	}

	return raw.normalize(0)
}

// decodeHeartbeatList returns the newest heartbeat of each list carried by a
// heartbeatList event. Two shapes exist upstream: (id, [hb...]) and
// ({id: [hb...], ...}).
func decodeHeartbeatList(args []json.RawMessage) ([]models.Heartbeat, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: heartbeatList without payload", errMalformedEvent)
	}

	if len(args) >= 2 && isJSONArray(args[1]) {
		var id models.FlexInt
		if err := json.Unmarshal(args[0], &id); err != nil {
			return nil, fmt.Errorf("%w: heartbeatList id: %w", errMalformedEvent, err)
		}

		hb, ok, err := lastHeartbeat(args[1], int(id))
		if err != nil || !ok {
			return nil, err
		}

		return []models.Heartbeat{hb}, nil
	}

	var lists map[string]json.RawMessage
	if err := json.Unmarshal(args[0], &lists); err != nil {
		return nil, fmt.Errorf("%w: heartbeatList: %w", errMalformedEvent, err)
	}

	keys := make([]string, 0, len(lists))
	for key := range lists {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])

		return a < b
	})

	out := make([]models.Heartbeat, 0, len(keys))

	for _, key := range keys {
		if !isJSONArray(lists[key]) {
			continue
		}

		id, _ := strconv.Atoi(key)

		hb, ok, err := lastHeartbeat(lists[key], id)
		if err != nil {
			return nil, err
		}

		if ok {
			out = append(out, hb)
		}
	}

	return out, nil
}

func lastHeartbeat(list json.RawMessage, fallbackID int) (models.Heartbeat, bool, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(list, &entries); err != nil {
		return models.Heartbeat{}, false, fmt.Errorf("%w: heartbeat list: %w", errMalformedEvent, err)
	}

	if len(entries) == 0 {
		return models.Heartbeat{}, false, nil
	}

	var raw rawHeartbeat
	if err := json.Unmarshal(entries[len(entries)-1], &raw); err != nil {
		return models.Heartbeat{}, false, fmt.Errorf("%w: heartbeat: %w", errMalformedEvent, err)
	}

	hb, err := raw.normalize(fallbackID)
	if err != nil {
		return models.Heartbeat{}, false, err
	}

	return hb, true, nil
}

func decodeUptime(args []json.RawMessage) (models.Uptime, error) {
	if len(args) < 3 {
		return models.Uptime{}, fmt.Errorf("%w: uptime needs id, period and percent", errMalformedEvent)
	}

	var (
		id      models.FlexInt
		period  models.FlexInt
		percent models.FlexFloat
	)

	for i, dst := range []json.Unmarshaler{&id, &period, &percent} {
		if err := dst.UnmarshalJSON(args[i]); err != nil {
			return models.Uptime{}, fmt.Errorf("%w: uptime argument %d: %w", errMalformedEvent, i, err)
		}
	}

	if id == 0 {
		return models.Uptime{}, fmt.Errorf("%w: uptime without monitor id", errMalformedEvent)
	}

	return models.Uptime{MonitorID: int(id), Period: int(period), Percent: float64(percent)}, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
