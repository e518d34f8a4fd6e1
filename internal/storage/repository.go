package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/llnuddill/account-book/internal/core"
	"github.com/llnuddill/account-book/internal/settings"
	ports "github.com/llnuddill/account-book/internal/sheets"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a transaction id does not exist.
var ErrNotFound = errors.New("transaction not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const transactionColumns = "id, entry_date, entry_time, kind, subclass, category, subcategory, description, amount, currency, instrument, memo"

// StoredTransaction pairs a canonical transaction with its row id.
type StoredTransaction struct {
	ID int64
	Tx core.Transaction
}

func scanTransaction(rows *sql.Rows) (StoredTransaction, error) {
	var st StoredTransaction
	var date, tod, kind, subclass, currency string
	err := rows.Scan(&st.ID, &date, &tod, &kind, &subclass,
		&st.Tx.Category, &st.Tx.Subcategory, &st.Tx.Description,
		&st.Tx.Amount, &currency, &st.Tx.Instrument, &st.Tx.Memo)
	if err != nil {
		return st, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return st, fmt.Errorf("stored date %q: %w", date, err)
	}
	st.Tx.Date = d
	st.Tx.Time = core.ParseTimeOfDay(tod)
	st.Tx.Kind = core.Kind(kind)
	st.Tx.Subclass = core.Subclass(subclass)
	st.Tx.Currency = core.Currency(currency)
	return st, nil
}

// ListTransactions returns every stored transaction ordered by date, time
// then insertion order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]StoredTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions ORDER BY entry_date, entry_time, id")
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []StoredTransaction
	for rows.Next() {
		st, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// ListByPeriod returns the transactions whose date falls in the given month.
func (r *SQLiteRepository) ListByPeriod(ctx context.Context, year, month int) ([]StoredTransaction, error) {
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE entry_date LIKE ? ORDER BY entry_date, entry_time, id",
		prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("list transactions by period: %w", err)
	}
	defer rows.Close()

	var out []StoredTransaction
	for rows.Next() {
		st, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetTransaction retrieves one transaction by id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (StoredTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	if err != nil {
		return StoredTransaction{}, fmt.Errorf("get transaction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return StoredTransaction{}, err
		}
		return StoredTransaction{}, ErrNotFound
	}
	return scanTransaction(rows)
}

// InsertTransaction stores one transaction and marks local state dirty.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (entry_date, entry_time, kind, subclass, category, subcategory, description, amount, currency, instrument, memo)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Date.String(), t.Time.String(), string(t.Kind), string(t.Subclass),
		t.Category, t.Subcategory, t.Description, t.Amount, string(t.Currency),
		t.Instrument, t.Memo)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	if err := markDirty(ctx, tx); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"description", t.Description,
		"amount", t.Amount,
		"date", t.Date.String())
	return id, nil
}

// UpdateTransaction replaces the stored transaction with the given id.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, t core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE transactions
		 SET entry_date = ?, entry_time = ?, kind = ?, subclass = ?, category = ?,
		     subcategory = ?, description = ?, amount = ?, currency = ?, instrument = ?,
		     memo = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		t.Date.String(), t.Time.String(), string(t.Kind), string(t.Subclass),
		t.Category, t.Subcategory, t.Description, t.Amount, string(t.Currency),
		t.Instrument, t.Memo, id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if err := markDirty(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteTransaction removes one transaction by id.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if err := markDirty(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceTransactions swaps the whole table for the given set, used by bulk
// CSV import in replace mode.
func (r *SQLiteRepository) ReplaceTransactions(ctx context.Context, txs []core.Transaction) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback()

	if _, err := dbtx.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	for _, t := range txs {
		_, err := dbtx.ExecContext(ctx,
			`INSERT INTO transactions (entry_date, entry_time, kind, subclass, category, subcategory, description, amount, currency, instrument, memo)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Date.String(), t.Time.String(), string(t.Kind), string(t.Subclass),
			t.Category, t.Subcategory, t.Description, t.Amount, string(t.Currency),
			t.Instrument, t.Memo)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}
	if err := markDirty(ctx, dbtx); err != nil {
		return err
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transaction table replaced", "count", len(txs))
	return nil
}

// ReadSettings returns all stored settings triples.
func (r *SQLiteRepository) ReadSettings(ctx context.Context) ([]settings.Entry, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT kind, key, value FROM settings ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	defer rows.Close()

	var entries []settings.Entry
	for rows.Next() {
		var e settings.Entry
		if err := rows.Scan(&e.Kind, &e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// WriteSettings replaces all stored settings triples.
func (r *SQLiteRepository) WriteSettings(ctx context.Context, entries []settings.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM settings"); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO settings (kind, key, value) VALUES (?, ?, ?)",
			e.Kind, e.Key, e.Value)
		if err != nil {
			return fmt.Errorf("insert setting: %w", err)
		}
	}
	if err := markDirty(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// ListUsers returns all stored accounts.
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]ports.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT username, password_hash, salt, created_at FROM users ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []ports.User
	for rows.Next() {
		var u ports.User
		if err := rows.Scan(&u.Username, &u.PasswordHash, &u.Salt, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// AppendUser stores one account row.
func (r *SQLiteRepository) AppendUser(ctx context.Context, u ports.User) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, salt, created_at) VALUES (?, ?, ?, ?)",
		u.Username, u.PasswordHash, u.Salt, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// SyncState reports the current revision and whether local data has changes
// not yet pushed to the spreadsheet.
type SyncState struct {
	Revision     int64
	Dirty        bool
	LastSyncedAt time.Time
}

func (r *SQLiteRepository) SyncState(ctx context.Context) (SyncState, error) {
	var st SyncState
	var dirty int64
	var last sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT revision, dirty, last_synced_at FROM sync_state WHERE id = 1").
		Scan(&st.Revision, &dirty, &last)
	if err != nil {
		return st, fmt.Errorf("read sync state: %w", err)
	}
	st.Dirty = dirty != 0
	if last.Valid {
		if t, err := time.Parse(time.RFC3339, last.String); err == nil {
			st.LastSyncedAt = t
		}
	}
	return st, nil
}

// MarkSynced clears the dirty flag for the given revision. If local writes
// advanced the revision since, the flag stays set and the next sync pass
// picks them up.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, revision int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE sync_state SET dirty = 0, last_synced_at = ? WHERE id = 1 AND revision = ?",
		time.Now().UTC().Format(time.RFC3339), revision)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		slog.InfoContext(ctx, "Revision advanced during sync, keeping dirty flag", "revision", revision)
		return nil
	}
	slog.InfoContext(ctx, "Local state marked as synced", "revision", revision)
	return nil
}

func markDirty(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx,
		"UPDATE sync_state SET revision = revision + 1, dirty = 1 WHERE id = 1"); err != nil {
		return fmt.Errorf("mark dirty: %w", err)
	}
	return nil
}
