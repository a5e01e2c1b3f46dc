package backend

import (
	"context"

	"alkansya/internal/session"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the session store and optional cleanup function
type BackendResult struct {
	Store   session.Store
	Cleanup CleanupFunc
}

// Close runs Cleanup when present
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates session stores based on configuration
type Factory interface {
	// CreateBackend creates a session store based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for session store creation
type Config struct {
	Type BackendType

	// File specific
	SessionFile       string
	SessionPassphrase string

	// SQLite specific
	SQLiteDBPath string
}

// BackendType represents the type of session store
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
