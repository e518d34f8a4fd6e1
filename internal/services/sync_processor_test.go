package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/llnuddill/account-book/internal/core"
	"github.com/llnuddill/account-book/internal/settings"
	"github.com/llnuddill/account-book/internal/sheets/memory"
	"github.com/llnuddill/account-book/internal/storage"
)

func TestNewSyncProcessor(t *testing.T) {
	config := DefaultSyncProcessorConfig()
	processor := NewSyncProcessor(nil, nil, config)

	if processor == nil {
		t.Error("NewSyncProcessor should return non-nil processor")
	}
	if processor.storage != nil {
		t.Error("storage should be nil when passed nil")
	}
	if processor.dest != nil {
		t.Error("dest should be nil when passed nil")
	}
}

func TestDefaultSyncProcessorConfig(t *testing.T) {
	config := DefaultSyncProcessorConfig()

	if config.PollInterval != 30*time.Second {
		t.Errorf("expected PollInterval 30s, got %v", config.PollInterval)
	}
}

func TestSyncProcessor_IsRunning(t *testing.T) {
	config := DefaultSyncProcessorConfig()
	processor := NewSyncProcessor(nil, nil, config)

	if processor.IsRunning() {
		t.Error("processor should not be running initially")
	}
}

func TestSyncProcessor_StartTwice(t *testing.T) {
	config := DefaultSyncProcessorConfig()
	config.PollInterval = 100 * time.Millisecond
	processor := NewSyncProcessor(nil, nil, config)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	processor.mu.Lock()
	processor.running = true
	processor.mu.Unlock()

	err := processor.Start(ctx)
	if err == nil {
		t.Error("expected error when starting already running processor")
	}
}

func TestSyncProcessor_StopNotRunning(t *testing.T) {
	config := DefaultSyncProcessorConfig()
	processor := NewSyncProcessor(nil, nil, config)

	if err := processor.Stop(context.Background()); err != nil {
		t.Errorf("stopping a non-running processor should be a no-op, got %v", err)
	}
}

func TestSyncProcessor_PushIfDirty(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()

	dest := memory.New()
	processor := NewSyncProcessor(repo, dest, DefaultSyncProcessorConfig())

	// clean state pushes nothing
	if err := processor.PushIfDirty(ctx); err != nil {
		t.Fatalf("PushIfDirty: %v", err)
	}
	rows, err := dest.ReadRows(ctx)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows pushed on clean state, got %d", len(rows))
	}

	date, err := core.ParseDate("2025-01-05")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	_, err = repo.InsertTransaction(ctx, core.Transaction{
		Date:        date,
		Kind:        core.KindExpense,
		Subclass:    core.SubclassNone,
		Category:    "식비",
		Description: "lunch",
		Amount:      -15000,
		Currency:    core.KRW,
		Instrument:  "현금",
	})
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}
	if err := repo.WriteSettings(ctx, settings.Encode(settings.Default())); err != nil {
		t.Fatalf("WriteSettings: %v", err)
	}

	if err := processor.PushIfDirty(ctx); err != nil {
		t.Fatalf("PushIfDirty: %v", err)
	}

	rows, err = dest.ReadRows(ctx)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row pushed, got %d", len(rows))
	}
	if rows[0]["내용"] != "lunch" {
		t.Errorf("unexpected pushed row: %+v", rows[0])
	}

	state, err := repo.SyncState(ctx)
	if err != nil {
		t.Fatalf("SyncState: %v", err)
	}
	if state.Dirty {
		t.Error("expected dirty flag cleared after push")
	}
}
