// Package worker pushes the local SQLite state to the Google spreadsheet in
// response to AMQP sync requests.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/llnuddill/account-book/internal/amqp"
	"github.com/llnuddill/account-book/internal/core"
	"github.com/llnuddill/account-book/internal/sheets"
	"github.com/llnuddill/account-book/internal/storage"
)

// Destination is the spreadsheet surface snapshots land on.
type Destination interface {
	sheets.TableWriter
	sheets.SettingsStore
}

// SyncWorker replaces the spreadsheet contents with the local state whenever
// a sync request arrives.
type SyncWorker struct {
	storage *storage.SQLiteRepository
	dest    Destination
}

func NewSyncWorker(storage *storage.SQLiteRepository, dest Destination) *SyncWorker {
	return &SyncWorker{
		storage: storage,
		dest:    dest,
	}
}

// HandleSyncRequest processes one sync request from AMQP. The message only
// triggers the push; the data comes from the database, so stale or duplicate
// messages are harmless.
func (w *SyncWorker) HandleSyncRequest(ctx context.Context, msg *amqp.SyncRequestMessage) error {
	slog.InfoContext(ctx, "Processing sync request",
		"revision", msg.Revision,
		"reason", msg.Reason)

	state, err := w.storage.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("read sync state: %w", err)
	}
	if !state.Dirty {
		slog.InfoContext(ctx, "Local state already synced, skipping",
			"revision", state.Revision)
		return nil
	}

	if err := w.pushSnapshot(ctx, state.Revision); err != nil {
		return err
	}
	return nil
}

// StartupSyncCheck pushes any local changes that were made while the worker
// was down. Recovers from missed AMQP messages.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	state, err := w.storage.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("read sync state for startup check: %w", err)
	}

	if !state.Dirty {
		slog.InfoContext(ctx, "No pending changes found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending changes on startup, pushing snapshot",
		"revision", state.Revision)
	return w.pushSnapshot(ctx, state.Revision)
}

func (w *SyncWorker) pushSnapshot(ctx context.Context, revision int64) error {
	stored, err := w.storage.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	txs := make([]core.Transaction, len(stored))
	for i, st := range stored {
		txs[i] = st.Tx
	}

	if err := w.dest.WriteTable(ctx, core.Table(txs)); err != nil {
		return fmt.Errorf("write table to sheets: %w", err)
	}

	entries, err := w.storage.ReadSettings(ctx)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if len(entries) > 0 {
		if err := w.dest.WriteSettings(ctx, entries); err != nil {
			return fmt.Errorf("write settings to sheets: %w", err)
		}
	}

	if err := w.storage.MarkSynced(ctx, revision); err != nil {
		slog.ErrorContext(ctx, "Failed to mark state as synced",
			"revision", revision, "error", err)
		// The push itself succeeded, the next pass will retry the flag.
		return nil
	}

	slog.InfoContext(ctx, "Snapshot synced to spreadsheet",
		"revision", revision,
		"transactions", len(txs),
		"settings", len(entries))

	return nil
}
