package session

import (
	"context"
	"sync"
)

// Manager serializes every read and write of a Store.
//
// Each Put or Clear bumps an epoch. Callers that read a session, do
// network I/O and then want to write something back use UpdateIf with the
// epoch they read; if a logout or re-login happened in between the write
// is refused with ErrStaleSession.
type Manager struct {
	mu        sync.Mutex
	store     Store
	epoch     uint64
	confirmed bool
}

var _ Store = (*Manager)(nil)

// NewManager wraps store
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Get returns the current session with AuthenticatedThisProcess filled in
func (m *Manager) Get(ctx context.Context) (Session, error) {
	s, _, err := m.Snapshot(ctx)
	return s, err
}

// Snapshot returns the current session and the epoch it belongs to
func (m *Manager) Snapshot(ctx context.Context) (Session, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.store.Get(ctx)
	if err != nil {
		return Session{}, m.epoch, err
	}
	s.AuthenticatedThisProcess = m.confirmed && s.HasToken()
	return s, m.epoch, nil
}

// Put replaces the session (last writer wins)
func (m *Manager) Put(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Put(ctx, s); err != nil {
		return err
	}
	m.epoch++
	m.confirmed = s.AuthenticatedThisProcess && s.HasToken()
	return nil
}

// Clear wipes the session. The epoch moves only once the store agreed.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.clearLocked(ctx)
}

// ClearIf wipes the session only if nothing replaced it since epoch. A
// failed check on an old token must not log out a newer session.
func (m *Manager) ClearIf(ctx context.Context, epoch uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch {
		return ErrStaleSession
	}
	return m.clearLocked(ctx)
}

func (m *Manager) clearLocked(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.epoch++
	m.confirmed = false
	return nil
}

// MarkAuthenticated records that the token read at epoch was confirmed in
// this process. It reports false if the session changed in the meantime.
func (m *Manager) MarkAuthenticated(epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch {
		return false
	}
	m.confirmed = true
	return true
}

// UpdateIf applies fn to the stored session only if nothing replaced or
// cleared it since epoch and it still carries a token.
func (m *Manager) UpdateIf(ctx context.Context, epoch uint64, fn func(*Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch {
		return ErrStaleSession
	}
	s, err := m.store.Get(ctx)
	if err != nil {
		return err
	}
	if !s.HasToken() {
		return ErrNoToken
	}

	fn(&s)
	if err := m.store.Put(ctx, s); err != nil {
		return err
	}
	m.epoch++
	return nil
}

// Epoch returns the current write generation
func (m *Manager) Epoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}
