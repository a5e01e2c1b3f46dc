package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const sessionFileMode os.FileMode = 0o600

// FileStore persists the session as a single JSON file, replaced atomically
// on every write. With a passphrase the file holds an encrypted envelope
// instead of plain JSON.
type FileStore struct {
	mu         sync.Mutex
	path       string
	passphrase string
	n, r, p    int
}

var _ Store = (*FileStore)(nil)

// FileOption customizes a FileStore
type FileOption func(*FileStore)

// WithPassphrase seals the session file with a key derived from passphrase
func WithPassphrase(passphrase string) FileOption {
	return func(f *FileStore) { f.passphrase = passphrase }
}

// WithScryptParams overrides the key derivation cost; tests use small values
func WithScryptParams(n, r, p int) FileOption {
	return func(f *FileStore) { f.n, f.r, f.p = n, r, p }
}

// NewFileStore creates the parent directory if needed
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	f := &FileStore{path: path}
	f.n, f.r, f.p = scryptParamsDefault()
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Path returns the file backing the store
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get(ctx context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := readFile(f.path)
	if err != nil {
		return Session{}, fmt.Errorf("read session file: %w", err)
	}
	if b == nil {
		return Session{}, nil
	}

	if f.passphrase != "" {
		b, err = decrypt(f.passphrase, b)
		if err != nil {
			return Session{}, fmt.Errorf("open session file: %w", err)
		}
	}

	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, fmt.Errorf("decode session file: %w", err)
	}
	return s, nil
}

func (f *FileStore) Put(ctx context.Context, s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if f.passphrase != "" {
		b, err = encrypt(f.passphrase, b, f.n, f.r, f.p)
		if err != nil {
			return fmt.Errorf("seal session: %w", err)
		}
	}
	if err := writeFile(f.path, b, sessionFileMode); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// readFile returns nil bytes for a missing file.
func readFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// writeFile writes via a temp file in the same directory and renames it
// over the target, so readers see either the old or the new content.
func writeFile(path string, b []byte, mode os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
