// Package session keeps one navigation controller per signed-in session.
package session

import (
	"sync"
	"time"

	"github.com/erazemk/fixitforward/internal/navigation"
)

type entry struct {
	ctrl    *navigation.Controller
	expires time.Time
}

// Manager maps session ids to controllers. Expired sessions are dropped
// on access and by Sweep.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]entry
	now      func() time.Time

	// OnChange, if set, receives the session count after every change.
	OnChange func(n int)
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{sessions: map[string]entry{}, now: time.Now}
}

// Put stores ctrl under id until expires.
func (m *Manager) Put(id string, ctrl *navigation.Controller, expires time.Time) {
	m.mu.Lock()
	m.sessions[id] = entry{ctrl: ctrl, expires: expires}
	n := len(m.sessions)
	m.mu.Unlock()
	m.changed(n)
}

// Get returns the controller of a live session.
func (m *Manager) Get(id string) (*navigation.Controller, bool) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok && !m.now().Before(e.expires) {
		delete(m.sessions, id)
		n := len(m.sessions)
		m.mu.Unlock()
		m.changed(n)
		return nil, false
	}
	m.mu.Unlock()
	return e.ctrl, ok
}

// End forgets a session.
func (m *Manager) End(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	m.changed(n)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	now := m.now()
	removed := 0
	for id, e := range m.sessions {
		if !now.Before(e.expires) {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()
	if removed > 0 {
		m.changed(n)
	}
	return removed
}

// Len returns the number of sessions held.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) changed(n int) {
	if m.OnChange != nil {
		m.OnChange(n)
	}
}
