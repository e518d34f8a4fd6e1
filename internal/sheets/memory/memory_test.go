package memory

import (
	"context"
	"testing"

	"github.com/llnuddill/account-book/internal/settings"
	ports "github.com/llnuddill/account-book/internal/sheets"
)

func TestWriteTableThenReadRows(t *testing.T) {
	s := New()
	ctx := context.Background()

	table := [][]string{
		{"날짜", "타입", "금액"},
		{"2025-01-05", "지출", "-15000"},
		{"2025-01-06", "수입"},
	}
	if err := s.WriteTable(ctx, table); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	rows, err := s.ReadRows(ctx)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["타입"] != "지출" {
		t.Errorf("expected 지출, got %v", rows[0]["타입"])
	}
	// short rows are padded with empty cells
	if rows[1]["금액"] != "" {
		t.Errorf("expected empty amount, got %v", rows[1]["금액"])
	}
}

func TestReadRowsEmpty(t *testing.T) {
	s := New()
	rows, err := s.ReadRows(context.Background())
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestDefaultSettingsSeeded(t *testing.T) {
	s := New()
	entries, err := s.ReadSettings(context.Background())
	if err != nil {
		t.Fatalf("ReadSettings: %v", err)
	}
	cfg, err := settings.Decode(entries)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(cfg.ExpenseCategories) == 0 {
		t.Error("expected default expense categories")
	}
}

func TestUsersRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := ports.User{Username: "kim", PasswordHash: "h", Salt: "s", CreatedAt: "2025-01-01 00:00:00"}
	if err := s.AppendUser(ctx, u); err != nil {
		t.Fatalf("AppendUser: %v", err)
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].Username != "kim" {
		t.Fatalf("unexpected users: %+v", users)
	}
}
