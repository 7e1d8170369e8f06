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
	"sort"

	"github.com/carverauto/dashgate/pkg/models"
)

// cachedUptimePeriod is the only uptime period, in hours, kept for replay.
const cachedUptimePeriod = 24

// Cache holds the latest known monitor list, heartbeat per monitor and
// 24-hour uptime per monitor. It is not safe for concurrent use; the Hub
// guards it with its dispatch lock.
type Cache struct {
	monitors   []models.Monitor
	heartbeats map[int]models.Heartbeat
	uptimes    map[int]models.Uptime
}

func NewCache() *Cache {
	return &Cache{
		heartbeats: make(map[int]models.Heartbeat),
		uptimes:    make(map[int]models.Uptime),
	}
}

// SetMonitors replaces the monitor list wholesale.
func (c *Cache) SetMonitors(monitors []models.Monitor) {
	c.monitors = append([]models.Monitor(nil), monitors...)
}

// Monitors returns a copy of the cached list, ascending by id.
func (c *Cache) Monitors() []models.Monitor {
	return append([]models.Monitor(nil), c.monitors...)
}

func (c *Cache) PutHeartbeat(hb models.Heartbeat) {
	c.heartbeats[hb.MonitorID] = hb
}

// PutUptime stores u if it covers the cached period and reports whether it did.
func (c *Cache) PutUptime(u models.Uptime) bool {
	if u.Period != cachedUptimePeriod {
		return false
	}

	c.uptimes[u.MonitorID] = u

	return true
}

// Heartbeats returns the latest heartbeat per monitor, ascending by monitor id.
func (c *Cache) Heartbeats() []models.Heartbeat {
	out := make([]models.Heartbeat, 0, len(c.heartbeats))
	for _, hb := range c.heartbeats {
		out = append(out, hb)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].MonitorID < out[j].MonitorID })

	return out
}

// Uptimes returns the cached 24-hour uptimes, ascending by monitor id.
func (c *Cache) Uptimes() []models.Uptime {
	out := make([]models.Uptime, 0, len(c.uptimes))
	for _, u := range c.uptimes {
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].MonitorID < out[j].MonitorID })

	return out
}

func (c *Cache) Reset() {
	c.monitors = nil
	c.heartbeats = make(map[int]models.Heartbeat)
	c.uptimes = make(map[int]models.Uptime)
}
