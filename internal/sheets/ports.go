package sheets

import (
	"context"

	"github.com/llnuddill/account-book/internal/reconcile"
	"github.com/llnuddill/account-book/internal/settings"
)

// User is one row of the users worksheet.
type User struct {
	Username     string
	PasswordHash string
	Salt         string
	CreatedAt    string
}

// Ports for outbound adapters.
type (
	// RowSource reads the ledger worksheet as header-keyed raw rows, exactly
	// as stored; reconciliation happens in the caller.
	RowSource interface {
		ReadRows(ctx context.Context) ([]reconcile.RawRow, error)
	}

	// TableWriter replaces the ledger worksheet wholesale with the canonical
	// table (header row first).
	TableWriter interface {
		WriteTable(ctx context.Context, table [][]string) error
	}

	// SettingsStore reads and wholesale-replaces the settings worksheet's
	// (kind, key, value) triples.
	SettingsStore interface {
		ReadSettings(ctx context.Context) ([]settings.Entry, error)
		WriteSettings(ctx context.Context, entries []settings.Entry) error
	}

	// UserStore backs account registration and login.
	UserStore interface {
		ListUsers(ctx context.Context) ([]User, error)
		AppendUser(ctx context.Context, u User) error
	}
)
