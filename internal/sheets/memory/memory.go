package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	ports "alkansya/internal/sheets"
)

// Store keeps written tables in memory, keyed by full tab name.
type Store struct {
	mu     sync.Mutex
	tables map[string]ports.Table
	writes int
	err    error
}

var _ ports.TableWriter = (*Store)(nil)

func New() *Store {
	return &Store{tables: map[string]ports.Table{}}
}

// FailWith makes every following write return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// WriteTables replaces each table and returns synthetic references.
func (s *Store) WriteTables(_ context.Context, prefix string, tables []ports.Table) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.writes++
	refs := make([]string, 0, len(tables))
	for _, t := range tables {
		name := strings.TrimSpace(strings.TrimSpace(prefix) + " " + t.Name)
		t.Name = name
		t.Header = append([]string(nil), t.Header...)
		rows := make([][]string, len(t.Rows))
		for i, r := range t.Rows {
			rows[i] = append([]string(nil), r...)
		}
		t.Rows = rows
		s.tables[name] = t
		refs = append(refs, fmt.Sprintf("mem:%s", name))
	}
	return refs, nil
}

// Table returns a written table by its full tab name.
func (s *Store) Table(name string) (ports.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	return t, ok
}

// Names lists written tab names, sorted.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tables))
	for n := range s.tables {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Writes counts successful WriteTables calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
