package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/llnuddill/account-book/internal/core"
	"github.com/llnuddill/account-book/internal/settings"
	ports "github.com/llnuddill/account-book/internal/sheets"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleTransaction(t *testing.T, date string, amount int64) core.Transaction {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", date, err)
	}
	return core.Transaction{
		Date:        d,
		Time:        core.TimeOfDay{Hour: 12, Minute: 30},
		Kind:        core.KindExpense,
		Subclass:    core.SubclassVariable,
		Category:    "식비",
		Subcategory: "카페",
		Description: "아메리카노",
		Amount:      amount,
		Currency:    core.KRW,
		Instrument:  "체크카드",
	}
}

func TestInsertAndListTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.InsertTransaction(ctx, sampleTransaction(t, "2025-02-10", -4500))
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	stored, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(stored))
	}
	got := stored[0].Tx
	if got.Date.String() != "2025-02-10" {
		t.Errorf("date round trip: got %s", got.Date)
	}
	if got.Time.Hour != 12 || got.Time.Minute != 30 {
		t.Errorf("time round trip: got %s", got.Time)
	}
	if got.Amount != -4500 {
		t.Errorf("amount round trip: got %d", got.Amount)
	}
}

func TestListByPeriod(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, date := range []string{"2025-01-05", "2025-02-10", "2025-02-28", "2025-12-01"} {
		if _, err := repo.InsertTransaction(ctx, sampleTransaction(t, date, -1000)); err != nil {
			t.Fatalf("InsertTransaction(%s): %v", date, err)
		}
	}

	feb, err := repo.ListByPeriod(ctx, 2025, 2)
	if err != nil {
		t.Fatalf("ListByPeriod: %v", err)
	}
	if len(feb) != 2 {
		t.Fatalf("expected 2 February rows, got %d", len(feb))
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.InsertTransaction(ctx, sampleTransaction(t, "2025-02-10", -4500))
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}

	updated := sampleTransaction(t, "2025-02-11", -5000)
	if err := repo.UpdateTransaction(ctx, id, updated); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}

	got, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Tx.Amount != -5000 {
		t.Errorf("expected amount -5000, got %d", got.Tx.Amount)
	}

	if err := repo.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, id); err == nil {
		t.Fatal("expected error reading deleted transaction")
	}
	if err := repo.DeleteTransaction(ctx, id); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.InsertTransaction(ctx, sampleTransaction(t, "2025-01-01", -100)); err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}

	replacement := []core.Transaction{
		sampleTransaction(t, "2025-03-01", -200),
		sampleTransaction(t, "2025-03-02", -300),
	}
	if err := repo.ReplaceTransactions(ctx, replacement); err != nil {
		t.Fatalf("ReplaceTransactions: %v", err)
	}

	stored, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 transactions after replace, got %d", len(stored))
	}
}

func TestSyncStateLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	state, err := repo.SyncState(ctx)
	if err != nil {
		t.Fatalf("SyncState: %v", err)
	}
	if state.Dirty {
		t.Fatal("fresh database should not be dirty")
	}

	if _, err := repo.InsertTransaction(ctx, sampleTransaction(t, "2025-02-10", -4500)); err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}

	state, err = repo.SyncState(ctx)
	if err != nil {
		t.Fatalf("SyncState: %v", err)
	}
	if !state.Dirty {
		t.Fatal("write should mark the state dirty")
	}
	firstRevision := state.Revision

	if err := repo.MarkSynced(ctx, firstRevision); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	state, err = repo.SyncState(ctx)
	if err != nil {
		t.Fatalf("SyncState: %v", err)
	}
	if state.Dirty {
		t.Fatal("MarkSynced should clear the dirty flag")
	}
}

func TestMarkSyncedSkipsStaleRevision(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.InsertTransaction(ctx, sampleTransaction(t, "2025-02-10", -4500)); err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}
	state, err := repo.SyncState(ctx)
	if err != nil {
		t.Fatalf("SyncState: %v", err)
	}

	// A concurrent write bumps the revision between snapshot and ack.
	if _, err := repo.InsertTransaction(ctx, sampleTransaction(t, "2025-02-11", -1000)); err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}

	if err := repo.MarkSynced(ctx, state.Revision); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	after, err := repo.SyncState(ctx)
	if err != nil {
		t.Fatalf("SyncState: %v", err)
	}
	if !after.Dirty {
		t.Fatal("stale ack must not clear the dirty flag")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entries := settings.Encode(settings.Default())
	if err := repo.WriteSettings(ctx, entries); err != nil {
		t.Fatalf("WriteSettings: %v", err)
	}

	got, err := repo.ReadSettings(ctx)
	if err != nil {
		t.Fatalf("ReadSettings: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(got))
	}
}

func TestSettingsKeepsDuplicateKindsAndOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// List-valued kinds share an empty key, and card entries must come back
	// in registration order because tier reports follow it.
	entries := []settings.Entry{
		{Kind: settings.EntryExpenseCategory, Value: "식비"},
		{Kind: settings.EntryExpenseCategory, Value: "교통"},
		{Kind: settings.EntryExpenseCategory, Value: "주거"},
		{Kind: settings.EntryCardTier, Key: "별카드", Value: `[{"limit":300000,"benefit":"스타벅스 쿠폰"}]`},
		{Kind: settings.EntryCardTier, Key: "알뜰카드", Value: `[{"limit":100000,"benefit":"통신비 할인"}]`},
	}
	if err := repo.WriteSettings(ctx, entries); err != nil {
		t.Fatalf("WriteSettings: %v", err)
	}

	got, err := repo.ReadSettings(ctx)
	if err != nil {
		t.Fatalf("ReadSettings: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(got))
	}
	for i := range entries {
		if got[i] != entries[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, got[i], entries[i])
		}
	}
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := ports.User{
		Username:     "jiyoung",
		PasswordHash: "hash",
		Salt:         "salt",
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := repo.AppendUser(ctx, u); err != nil {
		t.Fatalf("AppendUser: %v", err)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].Username != "jiyoung" {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestRecurringTemplates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	start, err := core.ParseDate("2025-01-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	tmpl := core.RecurringTemplate{
		Every:       core.Monthly,
		StartDate:   start,
		Kind:        core.KindExpense,
		Category:    "주거/통신",
		Description: "월세",
		Amount:      -500000,
		Currency:    core.KRW,
		Instrument:  "계좌이체",
		Active:      true,
	}

	id, err := repo.CreateTemplate(ctx, tmpl)
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	active, err := repo.ListActiveTemplates(ctx)
	if err != nil {
		t.Fatalf("ListActiveTemplates: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active template, got %d", len(active))
	}

	if err := repo.UpdateTemplateLastExecution(ctx, id, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("UpdateTemplateLastExecution: %v", err)
	}
	all, err := repo.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if all[0].LastExecution.IsZero() {
		t.Error("expected last execution to be recorded")
	}

	if err := repo.SetTemplateActive(ctx, id, false); err != nil {
		t.Fatalf("SetTemplateActive: %v", err)
	}
	active, err = repo.ListActiveTemplates(ctx)
	if err != nil {
		t.Fatalf("ListActiveTemplates: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active templates, got %d", len(active))
	}

	if err := repo.DeleteTemplate(ctx, id); err != nil {
		t.Fatalf("DeleteTemplate: %v", err)
	}
	if err := repo.DeleteTemplate(ctx, id); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
