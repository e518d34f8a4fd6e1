// Package memory provides an in-memory implementation of the ledger storage
// ports, used for local development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/llnuddill/account-book/internal/reconcile"
	"github.com/llnuddill/account-book/internal/settings"
	ports "github.com/llnuddill/account-book/internal/sheets"
)

type Store struct {
	mu      sync.RWMutex
	table   [][]string
	entries []settings.Entry
	users   []ports.User
}

var (
	_ ports.RowSource     = (*Store)(nil)
	_ ports.TableWriter   = (*Store)(nil)
	_ ports.SettingsStore = (*Store)(nil)
	_ ports.UserStore     = (*Store)(nil)
)

// New returns an empty store seeded with the default settings.
func New() *Store {
	return &Store{entries: settings.Encode(settings.Default())}
}

func (s *Store) ReadRows(_ context.Context) ([]reconcile.RawRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.table) == 0 {
		return nil, nil
	}
	header := s.table[0]
	rows := make([]reconcile.RawRow, 0, len(s.table)-1)
	for _, cells := range s.table[1:] {
		row := make(reconcile.RawRow, len(header))
		for i, name := range header {
			if i < len(cells) {
				row[name] = cells[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) WriteTable(_ context.Context, table [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([][]string, len(table))
	for i, row := range table {
		copied[i] = append([]string(nil), row...)
	}
	s.table = copied
	return nil
}

func (s *Store) ReadSettings(_ context.Context) ([]settings.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]settings.Entry(nil), s.entries...), nil
}

func (s *Store) WriteSettings(_ context.Context, entries []settings.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]settings.Entry(nil), entries...)
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]ports.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.User(nil), s.users...), nil
}

func (s *Store) AppendUser(_ context.Context, u ports.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
	return nil
}
