package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/llnuddill/account-book/internal/core"
	"github.com/llnuddill/account-book/internal/sheets"
	"github.com/llnuddill/account-book/internal/storage"
)

// SyncDestination is where snapshots get pushed, normally the Google Sheets
// adapter.
type SyncDestination interface {
	sheets.TableWriter
	sheets.SettingsStore
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check the dirty flag (default: 30s)
	PollInterval time.Duration
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 30 * time.Second,
	}
}

// SyncProcessor periodically pushes dirty local state to the spreadsheet.
// It is the backup path when AMQP messages are lost.
type SyncProcessor struct {
	storage *storage.SQLiteRepository
	dest    SyncDestination
	config  SyncProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(storage *storage.SQLiteRepository, dest SyncDestination, config SyncProcessorConfig) *SyncProcessor {
	return &SyncProcessor{
		storage: storage,
		dest:    dest,
		config:  config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	// Signal stop
	close(p.stopCh)

	// Wait for completion or context cancellation
	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// runLoop is the main processing loop
func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	// Process immediately on startup
	if err := p.PushIfDirty(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup snapshot push failed", "error", err)
	}

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			if err := p.PushIfDirty(ctx); err != nil {
				slog.ErrorContext(ctx, "Snapshot push failed", "error", err)
			}
		}
	}
}

// PushIfDirty pushes a full snapshot of the local ledger and settings to the
// destination when local writes happened since the last push.
func (p *SyncProcessor) PushIfDirty(ctx context.Context) error {
	state, err := p.storage.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("read sync state: %w", err)
	}
	if !state.Dirty {
		return nil
	}

	stored, err := p.storage.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	txs := make([]core.Transaction, len(stored))
	for i, st := range stored {
		txs[i] = st.Tx
	}

	if err := p.dest.WriteTable(ctx, core.Table(txs)); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	entries, err := p.storage.ReadSettings(ctx)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if len(entries) > 0 {
		if err := p.dest.WriteSettings(ctx, entries); err != nil {
			return fmt.Errorf("write settings: %w", err)
		}
	}

	if err := p.storage.MarkSynced(ctx, state.Revision); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot pushed to spreadsheet",
		"revision", state.Revision,
		"transactions", len(txs),
		"settings", len(entries))

	return nil
}
