// Package connectivity tracks the process-wide online/offline state.
//
// The state is advisory: it reflects the last reachability report fed in by
// the embedding application (a browser event bridge, a NetworkManager hook,
// a failed health probe). A true partition invisible to that source is not
// detected here; the strategy router and the action queue handle that case
// by reacting to actual request failures.
package connectivity

import "sync"

// Listener receives online/offline transitions.
type Listener func(online bool)

// Monitor holds the current connectivity state and notifies listeners on
// transitions. Listeners are invoked synchronously, in subscription order,
// so tests can drive transitions deterministically.
type Monitor struct {
	mu        sync.Mutex
	online    bool
	nextID    int
	listeners []subscription
}

type subscription struct {
	id int
	fn Listener
}

// NewMonitor creates a monitor with the given initial state.
func NewMonitor(online bool) *Monitor {
	return &Monitor{online: online}
}

// Online reports the last known connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a reachability report. Listeners fire only when the
// state actually changes.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]subscription, len(m.listeners))
	copy(subs, m.listeners)
	m.mu.Unlock()

	for _, s := range subs {
		s.fn(online)
	}
}

// Subscribe registers a listener and returns an unsubscribe function.
// Unsubscribing twice is harmless.
func (m *Monitor) Subscribe(fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, subscription{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.listeners {
			if s.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}
