// Package session holds the persisted client session and the state
// machine that tracks whether it may be used for authenticated calls.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrStaleSession      = errors.New("session changed since it was read")
	ErrNoToken           = errors.New("no session token")
	ErrInvalidTransition = errors.New("invalid session state transition")
)

// Session is the persisted client identity. An empty Token means absent.
type Session struct {
	Token    string `json:"token,omitempty"`
	Currency string `json:"currency"`
	UserID   string `json:"userId,omitempty"`

	// AuthenticatedThisProcess is set once the gate has confirmed the
	// token in the running process; it is never persisted.
	AuthenticatedThisProcess bool `json:"-"`
}

// HasToken reports whether a bearer token is present
func (s Session) HasToken() bool {
	return s.Token != ""
}

// Store is a durable key/value home for the session.
// Implementations must be safe for concurrent use; last writer wins.
type Store interface {
	Get(ctx context.Context) (Session, error)
	Put(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// State of the session lifecycle
type State int

const (
	Unauthenticated State = iota
	Authenticated
	Expired
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Machine guards lifecycle transitions:
//
//	Unauthenticated -> Authenticated  (login)
//	Authenticated   -> Authenticated  (token confirmed again)
//	Authenticated   -> Expired        (confirmation failed or AuthRequired)
//	Expired         -> Unauthenticated (store cleared)
//	Authenticated   -> Unauthenticated (explicit logout)
type Machine struct {
	mu    sync.Mutex
	state State
}

// NewMachine starts in the given state
func NewMachine(initial State) *Machine {
	return &Machine{state: initial}
}

// State returns the current state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Transition moves to next if the edge is allowed
func (m *Machine) Transition(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !allowed(m.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, next)
	}
	m.state = next
	return nil
}

// Force sets the state without checking; used when the persisted session
// is found in a state the process did not observe (e.g. a token left over
// from a previous run).
func (m *Machine) Force(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func allowed(from, to State) bool {
	switch from {
	case Unauthenticated:
		return to == Authenticated
	case Authenticated:
		return to == Authenticated || to == Expired || to == Unauthenticated
	case Expired:
		return to == Unauthenticated
	}
	return false
}
