/* Copyright 2025 Dnote Authors
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

package notesync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/notesync/notesync/pkg/log"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

// Prober reports whether the remote store can currently be reached
type Prober interface {
	Probe(ctx context.Context) bool
}

// NetworkMonitor tracks connectivity and notifies listeners once per
// transition. Raw transitions are forwarded as they come, without debouncing.
type NetworkMonitor struct {
	prober   Prober
	interval time.Duration

	// deliverMu serializes transitions so that listeners observe them in order
	deliverMu sync.Mutex

	mu        sync.Mutex
	probed    bool
	enabled   bool
	online    bool
	listeners map[int]func(online bool)
	nextID    int
	cron      *cron.Cron
}

// NewNetworkMonitor returns a monitor. It reports online until told
// otherwise or until the first probe.
func NewNetworkMonitor(prober Prober, interval time.Duration) *NetworkMonitor {
	return &NetworkMonitor{
		prober:    prober,
		interval:  interval,
		probed:    true,
		enabled:   true,
		online:    true,
		listeners: map[int]func(bool){},
	}
}

// Start seeds the state from one probe and then probes on a schedule
func (m *NetworkMonitor) Start(ctx context.Context) error {
	if m.prober == nil {
		return nil
	}

	m.SetOnline(m.prober.Probe(ctx))

	c := cron.New()
	spec := fmt.Sprintf("@every %s", m.interval)
	if err := c.AddFunc(spec, func() {
		m.SetOnline(m.prober.Probe(ctx))
	}); err != nil {
		return errors.Wrapf(err, "scheduling connectivity probe %s", spec)
	}
	c.Start()

	m.mu.Lock()
	m.cron = c
	m.mu.Unlock()

	log.WithFields(log.Fields{
		"interval": m.interval.String(),
	}).Debug("Started network monitor.")

	return nil
}

// Stop stops probing
func (m *NetworkMonitor) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()

	if c != nil {
		c.Stop()
	}
}

// Online reports the current connectivity
func (m *NetworkMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.online
}

// Enabled reports whether the network is enabled
func (m *NetworkMonitor) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.enabled
}

// SetOnline records a raw connectivity observation
func (m *NetworkMonitor) SetOnline(online bool) {
	m.update(func() {
		m.probed = online
	})
}

// SetEnabled turns the network on or off. A disabled network is reported as
// offline whatever the probes say; enabling it again restores the last
// observation.
func (m *NetworkMonitor) SetEnabled(enabled bool) {
	m.update(func() {
		m.enabled = enabled
	})
}

// OnChange registers a listener called after every transition
func (m *NetworkMonitor) OnChange(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.listeners[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(m.listeners, id)
	}
}

func (m *NetworkMonitor) update(mutate func()) {
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	m.mu.Lock()
	prev := m.online
	mutate()
	m.online = m.enabled && m.probed
	online := m.online

	if online == prev {
		m.mu.Unlock()
		return
	}

	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]func(bool), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, m.listeners[id])
	}
	m.mu.Unlock()

	log.WithFields(log.Fields{
		"online": online,
	}).Info("Connectivity changed.")

	for _, fn := range listeners {
		fn(online)
	}
}
