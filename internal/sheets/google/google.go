// Package google adapts the ledger's storage ports onto a Google
// spreadsheet: one worksheet for transactions, one for settings triples and
// one for user accounts.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/llnuddill/account-book/internal/reconcile"
	"github.com/llnuddill/account-book/internal/settings"
	ports "github.com/llnuddill/account-book/internal/sheets"
)

// Config names the spreadsheet and its worksheets. Empty worksheet names get
// the historical defaults.
type Config struct {
	SpreadsheetID string
	LedgerSheet   string
	SettingsSheet string
	UsersSheet    string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
	settingsSheet string
	usersSheet    string
}

// Ensure interface conformance
var (
	_ ports.RowSource     = (*Client)(nil)
	_ ports.TableWriter   = (*Client)(nil)
	_ ports.SettingsStore = (*Client)(nil)
	_ ports.UserStore     = (*Client)(nil)
)

// settingsHeader is the header row of the settings worksheet.
var settingsHeader = []any{"타입", "키", "값"}

// usersHeader is the header row of the users worksheet.
var usersHeader = []any{"username", "password_hash", "salt", "created_at"}

// New creates a Sheets-backed client. Credentials come from the environment
// via newSheetsService; the spreadsheet ID is required.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	ledger := cfg.LedgerSheet
	if ledger == "" {
		ledger = "가계부"
	}
	settingsSheet := cfg.SettingsSheet
	if settingsSheet == "" {
		settingsSheet = "설정"
	}
	users := cfg.UsersSheet
	if users == "" {
		users = "Users"
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		ledgerSheet:   ledger,
		settingsSheet: settingsSheet,
		usersSheet:    users,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReadRows reads the whole ledger worksheet and returns header-keyed raw
// rows, exactly as stored. An empty sheet yields no rows and no error.
func (c *Client) ReadRows(ctx context.Context) ([]reconcile.RawRow, error) {
	values, err := c.readAll(ctx, c.ledgerSheet)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	header := toStrings(values[0])
	rows := make([]reconcile.RawRow, 0, len(values)-1)
	for _, cells := range values[1:] {
		row := make(reconcile.RawRow, len(header))
		for i, name := range header {
			if i < len(cells) {
				row[name] = cells[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteTable clears the ledger worksheet and writes the canonical table.
func (c *Client) WriteTable(ctx context.Context, table [][]string) error {
	values := make([][]any, len(table))
	for i, row := range table {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	if err := c.replaceAll(ctx, c.ledgerSheet, values); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Ledger sheet replaced", "sheet", c.ledgerSheet, "rows", len(table))
	return nil
}

// ReadSettings reads the settings worksheet triples, skipping the header row.
func (c *Client) ReadSettings(ctx context.Context) ([]settings.Entry, error) {
	values, err := c.readAll(ctx, c.settingsSheet)
	if err != nil {
		return nil, err
	}
	var entries []settings.Entry
	for i, row := range values {
		cells := toStrings(row)
		if i == 0 && len(cells) > 0 && cells[0] == "타입" {
			continue
		}
		if len(cells) == 0 || cells[0] == "" {
			continue
		}
		e := settings.Entry{Kind: cells[0]}
		if len(cells) > 1 {
			e.Key = cells[1]
		}
		if len(cells) > 2 {
			e.Value = cells[2]
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteSettings clears the settings worksheet and writes header plus triples.
func (c *Client) WriteSettings(ctx context.Context, entries []settings.Entry) error {
	values := make([][]any, 0, len(entries)+1)
	values = append(values, settingsHeader)
	for _, e := range entries {
		values = append(values, []any{e.Kind, e.Key, e.Value})
	}
	if err := c.replaceAll(ctx, c.settingsSheet, values); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Settings sheet replaced", "sheet", c.settingsSheet, "entries", len(entries))
	return nil
}

// ListUsers reads all account rows from the users worksheet.
func (c *Client) ListUsers(ctx context.Context) ([]ports.User, error) {
	values, err := c.readAll(ctx, c.usersSheet)
	if err != nil {
		return nil, err
	}
	var users []ports.User
	for i, row := range values {
		cells := toStrings(row)
		if i == 0 && len(cells) > 0 && cells[0] == "username" {
			continue
		}
		if len(cells) < 3 || cells[0] == "" {
			continue
		}
		u := ports.User{Username: cells[0], PasswordHash: cells[1], Salt: cells[2]}
		if len(cells) > 3 {
			u.CreatedAt = cells[3]
		}
		users = append(users, u)
	}
	return users, nil
}

// AppendUser appends one account row, writing the header first on an empty
// worksheet.
func (c *Client) AppendUser(ctx context.Context, u ports.User) error {
	existing, err := c.readAll(ctx, c.usersSheet)
	if err != nil {
		return err
	}
	var values [][]any
	if len(existing) == 0 {
		values = append(values, usersHeader)
	}
	values = append(values, []any{u.Username, u.PasswordHash, u.Salt, u.CreatedAt})

	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.usersSheet, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.usersSheet, err)
	}
	return nil
}

func (c *Client) readAll(ctx context.Context, sheetName string) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheetName).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheetName, err)
	}
	return resp.Values, nil
}

func (c *Client) replaceAll(ctx context.Context, sheetName string, values [][]any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, sheetName, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", sheetName, err)
	}
	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, sheetName+"!A1", vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", sheetName, err)
	}
	return nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
