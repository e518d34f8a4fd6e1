package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/llnuddill/account-book/internal/amqp"
	"github.com/llnuddill/account-book/internal/cache"
	"github.com/llnuddill/account-book/internal/core"
	"github.com/llnuddill/account-book/internal/csv"
	"github.com/llnuddill/account-book/internal/reconcile"
	"github.com/llnuddill/account-book/internal/settings"
	"github.com/llnuddill/account-book/internal/sheets"
	"github.com/llnuddill/account-book/internal/storage"
	"github.com/llnuddill/account-book/internal/tiers"
)

// ErrRowOutOfRange is returned when a row index does not address a stored
// transaction.
var ErrRowOutOfRange = errors.New("row index out of range")

// Store is the storage surface the ledger operates on. All three backends
// (sqlite, sheets, memory) satisfy it.
type Store interface {
	sheets.RowSource
	sheets.TableWriter
	sheets.SettingsStore
	sheets.UserStore
}

// LedgerService orchestrates ledger operations: reads go through the
// migration pipeline, writes rewrite the canonical table and request a
// spreadsheet sync.
type LedgerService struct {
	store      Store
	repo       *storage.SQLiteRepository // nil unless the sqlite backend is active
	amqpClient *amqp.Client              // nil when sync is disabled

	summaries *cache.LRUCache[core.MonthSummary]
	pivots    *cache.LRUCache[core.YearPivot]
	reports   *cache.LRUCache[[]tiers.CardReport]
}

// ImportResult reports the outcome of a CSV import.
type ImportResult struct {
	Imported int
	Skipped  []reconcile.RowError
	Replaced bool
}

const (
	cacheSize = 64
	cacheTTL  = 5 * time.Minute
)

func NewLedgerService(store Store, repo *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		store:      store,
		repo:       repo,
		amqpClient: amqpClient,
		summaries:  cache.NewLRUCache[core.MonthSummary](cacheSize, cacheTTL),
		pivots:     cache.NewLRUCache[core.YearPivot](cacheSize, cacheTTL),
		reports:    cache.NewLRUCache[[]tiers.CardReport](cacheSize, cacheTTL),
	}
}

// RegisterCaches registers the service caches with the manager for periodic
// expiry cleanup.
func (s *LedgerService) RegisterCaches(m *cache.Manager) {
	m.Register(s.summaries)
	m.Register(s.pivots)
	m.Register(s.reports)
}

// Load reads every stored row and runs it through the migration pipeline.
// Rows with unusable dates are logged and dropped.
func (s *LedgerService) Load(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.store.ReadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	result := reconcile.Rows(rows)
	for _, re := range result.Skipped {
		slog.WarnContext(ctx, "Skipping unreadable ledger row",
			"row", re.Index,
			"error", re.Err)
	}
	return result.Transactions, nil
}

// ListMonth returns the transactions of one month.
func (s *LedgerService) ListMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	txs, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, t := range txs {
		if t.Date.In(year, month) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Append validates one transaction, normalizes its sign and rewrites the
// table with it added.
func (s *LedgerService) Append(ctx context.Context, t core.Transaction) error {
	t = t.NormalizeSign()
	if err := t.Validate(); err != nil {
		return err
	}

	txs, err := s.Load(ctx)
	if err != nil {
		return err
	}
	txs = append(txs, t)

	if err := s.writeAll(ctx, txs); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction appended",
		"date", t.Date.String(),
		"kind", string(t.Kind),
		"amount", t.Amount)
	s.publishSync(ctx, amqp.ReasonTransaction)
	return nil
}

// Update replaces the transaction at the given row index.
func (s *LedgerService) Update(ctx context.Context, row int, t core.Transaction) error {
	t = t.NormalizeSign()
	if err := t.Validate(); err != nil {
		return err
	}

	txs, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(txs) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	txs[row] = t

	if err := s.writeAll(ctx, txs); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction updated", "row", row)
	s.publishSync(ctx, amqp.ReasonTransaction)
	return nil
}

// Delete removes the transaction at the given row index.
func (s *LedgerService) Delete(ctx context.Context, row int) error {
	txs, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(txs) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	txs = append(txs[:row], txs[row+1:]...)

	if err := s.writeAll(ctx, txs); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted", "row", row)
	s.publishSync(ctx, amqp.ReasonTransaction)
	return nil
}

// MonthSummary returns the aggregated totals of one month, cached.
func (s *LedgerService) MonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	key := fmt.Sprintf("%04d-%02d", year, month)
	if cached, ok := s.summaries.Get(key); ok {
		return cached, nil
	}

	txs, err := s.Load(ctx)
	if err != nil {
		return core.MonthSummary{}, err
	}
	summary := core.SummarizeMonth(txs, year, month)
	s.summaries.Set(key, summary)
	return summary, nil
}

// YearPivot returns the month-by-month totals of one year, cached.
func (s *LedgerService) YearPivot(ctx context.Context, year int) (core.YearPivot, error) {
	key := fmt.Sprintf("%04d", year)
	if cached, ok := s.pivots.Get(key); ok {
		return cached, nil
	}

	txs, err := s.Load(ctx)
	if err != nil {
		return core.YearPivot{}, err
	}
	pivot := core.SummarizeYear(txs, year)
	s.pivots.Set(key, pivot)
	return pivot, nil
}

// CardReports evaluates every registered card against one month's spend,
// cached.
func (s *LedgerService) CardReports(ctx context.Context, year, month int) ([]tiers.CardReport, error) {
	key := fmt.Sprintf("cards-%04d-%02d", year, month)
	if cached, ok := s.reports.Get(key); ok {
		return cached, nil
	}

	cfg, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	result := tiers.Evaluate(txs, year, month, cfg.Cards)
	s.reports.Set(key, result)
	return result, nil
}

// Settings reads the stored configuration, falling back to the defaults when
// nothing is stored yet.
func (s *LedgerService) Settings(ctx context.Context) (settings.Settings, error) {
	entries, err := s.store.ReadSettings(ctx)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	if len(entries) == 0 {
		return settings.Default(), nil
	}
	cfg, err := settings.Decode(entries)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return cfg, nil
}

// SaveSettings stores the configuration and requests a sync.
func (s *LedgerService) SaveSettings(ctx context.Context, cfg settings.Settings) error {
	if err := s.store.WriteSettings(ctx, settings.Encode(cfg)); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	s.invalidate()
	slog.InfoContext(ctx, "Settings saved",
		"cards", len(cfg.Cards),
		"payment_methods", len(cfg.PaymentMethods))
	s.publishSync(ctx, amqp.ReasonSettings)
	return nil
}

// ImportCSV reads an exported ledger file and merges or replaces the stored
// table with its rows.
func (s *LedgerService) ImportCSV(ctx context.Context, r io.Reader, replace bool) (ImportResult, error) {
	rows, err := csv.Read(r)
	if err != nil {
		return ImportResult{}, err
	}

	result := reconcile.Rows(rows)
	for _, re := range result.Skipped {
		slog.WarnContext(ctx, "Skipping unreadable CSV row",
			"row", re.Index,
			"error", re.Err)
	}

	txs := result.Transactions
	if !replace {
		existing, err := s.Load(ctx)
		if err != nil {
			return ImportResult{}, err
		}
		txs = append(existing, txs...)
	}

	if err := s.writeAll(ctx, txs); err != nil {
		return ImportResult{}, err
	}

	slog.InfoContext(ctx, "CSV import finished",
		"imported", len(result.Transactions),
		"skipped", len(result.Skipped),
		"replace", replace)
	s.publishSync(ctx, amqp.ReasonImport)

	return ImportResult{
		Imported: len(result.Transactions),
		Skipped:  result.Skipped,
		Replaced: replace,
	}, nil
}

// ExportCSV writes the canonical table as a BOM-prefixed CSV file.
func (s *LedgerService) ExportCSV(ctx context.Context, w io.Writer) error {
	txs, err := s.Load(ctx)
	if err != nil {
		return err
	}
	return csv.Write(w, txs)
}

func (s *LedgerService) writeAll(ctx context.Context, txs []core.Transaction) error {
	if err := s.store.WriteTable(ctx, core.Table(txs)); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	s.invalidate()
	return nil
}

func (s *LedgerService) invalidate() {
	s.summaries.Purge()
	s.pivots.Purge()
	s.reports.Purge()
}

// publishSync asks the worker to push local state to the spreadsheet. Local
// writes already succeeded, so failures here only log.
func (s *LedgerService) publishSync(ctx context.Context, reason string) {
	if s.amqpClient == nil {
		return
	}

	var revision int64
	if s.repo != nil {
		state, err := s.repo.SyncState(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to read sync state", "error", err)
		} else {
			revision = state.Revision
		}
	}

	if err := s.amqpClient.PublishSyncRequest(ctx, revision, reason); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync request",
			"revision", revision,
			"reason", reason,
			"error", err)
	}
}
