package backend

import (
	"context"

	"github.com/llnuddill/account-book/internal/amqp"
	"github.com/llnuddill/account-book/internal/sheets"
	"github.com/llnuddill/account-book/internal/storage"
)

// Backend is the unified storage surface the ledger service runs on.
type Backend interface {
	sheets.RowSource
	sheets.TableWriter
	sheets.SettingsStore
	sheets.UserStore
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance plus the resources that only
// exist for some backend types.
type BackendResult struct {
	Backend Backend

	// Repo is set for the sqlite backend; it carries the sync state and
	// recurring templates.
	Repo *storage.SQLiteRepository

	// AMQP is set when the sqlite backend has sync messaging configured.
	AMQP *amqp.Client

	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleLedgerSheet   string
	GoogleSettingsSheet string
	GoogleUsersSheet    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
