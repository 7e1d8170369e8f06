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
	"sync"

	"github.com/google/uuid"

	"github.com/carverauto/dashgate/pkg/models"
)

// Subscriber receives relayed events. Nil callbacks are skipped. Callbacks run
// under the Hub's dispatch lock: they must not block, and the only Hub call
// they may make is their own unsubscribe func.
type Subscriber struct {
	OnMonitorList func([]models.Monitor)
	OnHeartbeat   func(models.Heartbeat)
	OnUptime      func(models.Uptime)
	OnConnect     func()
	OnDisconnect  func()
}

type registration struct {
	id  uuid.UUID
	sub Subscriber
}

// Registry is the ordered set of current subscribers.
type Registry struct {
	mu      sync.Mutex
	entries []registration
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers sub and returns its id.
func (r *Registry) Add(sub Subscriber) uuid.UUID {
	id := uuid.New()

	r.mu.Lock()
	r.entries = append(r.entries, registration{id: id, sub: sub})
	r.mu.Unlock()

	return id
}

// Remove drops the subscriber with id. Removing an unknown id is a no-op.
func (r *Registry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return true
		}
	}

	return false
}

// snapshot returns the registrations in order.
func (r *Registry) snapshot() []registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]registration(nil), r.entries...)
}

// Has reports whether id is still registered.
func (r *Registry) Has(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.id == id {
			return true
		}
	}

	return false
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

func (r *Registry) Clear() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}
