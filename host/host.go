// Package host supplies the host-environment connectivity signal consumed by
// the connectivity tracker.
package host

import "sync"

// Monitor reports whether the host has network access and notifies changes.
type Monitor interface {
	Online() bool
	// Subscribe registers fn for online/offline changes. fn is not called for
	// the current state. cancel is idempotent.
	Subscribe(fn func(online bool)) (cancel func())
}

// Manual is a Monitor driven by the embedding application, e.g. from OS
// network notifications. The zero value reports offline; use NewManual.
type Manual struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]func(bool)
}

var _ Monitor = (*Manual)(nil)

func NewManual(online bool) *Manual {
	return &Manual{online: online, subs: make(map[int]func(bool))}
}

func (m *Manual) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records the host state and notifies subscribers if it changed.
// Subscribers run synchronously on the caller's goroutine.
func (m *Manual) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	fns := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}

func (m *Manual) Subscribe(fn func(bool)) func() {
	m.mu.Lock()
	if m.subs == nil {
		m.subs = make(map[int]func(bool))
	}
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}
