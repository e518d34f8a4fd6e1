// Package adapters bridges the SQLite repository onto the storage ports so
// the ledger service works unchanged against any backend.
package adapters

import (
	"context"

	"github.com/llnuddill/account-book/internal/core"
	"github.com/llnuddill/account-book/internal/reconcile"
	"github.com/llnuddill/account-book/internal/settings"
	ports "github.com/llnuddill/account-book/internal/sheets"
	"github.com/llnuddill/account-book/internal/storage"
)

// SQLiteAdapter exposes the repository through the same port surface the
// sheets and memory backends implement.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
}

var (
	_ ports.RowSource     = (*SQLiteAdapter)(nil)
	_ ports.TableWriter   = (*SQLiteAdapter)(nil)
	_ ports.SettingsStore = (*SQLiteAdapter)(nil)
	_ ports.UserStore     = (*SQLiteAdapter)(nil)
)

func NewSQLiteAdapter(storage *storage.SQLiteRepository) *SQLiteAdapter {
	return &SQLiteAdapter{storage: storage}
}

// ReadRows implements sheets.RowSource by serializing the stored
// transactions into header-keyed rows.
func (a *SQLiteAdapter) ReadRows(ctx context.Context) ([]reconcile.RawRow, error) {
	stored, err := a.storage.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	header := core.Columns()
	rows := make([]reconcile.RawRow, 0, len(stored))
	for _, st := range stored {
		record := st.Tx.Record()
		row := make(reconcile.RawRow, len(header))
		for i, name := range header {
			row[name] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteTable implements sheets.TableWriter by replacing the stored set with
// the reconciled table contents.
func (a *SQLiteAdapter) WriteTable(ctx context.Context, table [][]string) error {
	if len(table) == 0 {
		return a.storage.ReplaceTransactions(ctx, nil)
	}
	result := reconcile.Rows(reconcile.FromTable(table[0], table[1:]))
	return a.storage.ReplaceTransactions(ctx, result.Transactions)
}

// ReadSettings implements sheets.SettingsStore.
func (a *SQLiteAdapter) ReadSettings(ctx context.Context) ([]settings.Entry, error) {
	return a.storage.ReadSettings(ctx)
}

// WriteSettings implements sheets.SettingsStore.
func (a *SQLiteAdapter) WriteSettings(ctx context.Context, entries []settings.Entry) error {
	return a.storage.WriteSettings(ctx, entries)
}

// ListUsers implements sheets.UserStore.
func (a *SQLiteAdapter) ListUsers(ctx context.Context) ([]ports.User, error) {
	return a.storage.ListUsers(ctx)
}

// AppendUser implements sheets.UserStore.
func (a *SQLiteAdapter) AppendUser(ctx context.Context, u ports.User) error {
	return a.storage.AppendUser(ctx, u)
}
