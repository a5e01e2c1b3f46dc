package backend

import (
	"context"
	"fmt"

	"alkansya/internal/log"
	"alkansya/internal/session"
	"alkansya/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case FileBackend:
		return f.createFileBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSessionRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite session store: %w", err)
	}

	f.logger.Info("Initialized SQLite session store", log.FieldBackend, SQLiteBackend, "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	var opts []session.FileOption
	if config.SessionPassphrase != "" {
		opts = append(opts, session.WithPassphrase(config.SessionPassphrase))
	}

	store, err := session.NewFileStore(config.SessionFile, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file session store: %w", err)
	}

	f.logger.Info("Initialized file session store",
		log.FieldBackend, FileBackend,
		"path", config.SessionFile,
		"encrypted", config.SessionPassphrase != "")

	return &BackendResult{Store: store}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory session store", log.FieldBackend, MemoryBackend)
	return &BackendResult{Store: session.NewMemoryStore()}, nil
}
