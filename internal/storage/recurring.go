package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/llnuddill/account-book/internal/core"
)

const templateColumns = "id, every, start_date, kind, category, subcategory, description, amount, currency, instrument, memo, active, last_execution_date"

func scanTemplate(rows *sql.Rows) (core.RecurringTemplate, error) {
	var t core.RecurringTemplate
	var every, startDate, kind, currency string
	var active int64
	var lastExec sql.NullString
	err := rows.Scan(&t.ID, &every, &startDate, &kind, &t.Category, &t.Subcategory,
		&t.Description, &t.Amount, &currency, &t.Instrument, &t.Memo, &active, &lastExec)
	if err != nil {
		return t, err
	}
	t.Every = core.Repetition(every)
	t.Kind = core.Kind(kind)
	t.Currency = core.Currency(currency)
	t.Active = active != 0
	d, err := core.ParseDate(startDate)
	if err != nil {
		return t, fmt.Errorf("stored start date %q: %w", startDate, err)
	}
	t.StartDate = d
	if lastExec.Valid && lastExec.String != "" {
		if ts, err := time.Parse(time.RFC3339, lastExec.String); err == nil {
			t.LastExecution = ts
		}
	}
	return t, nil
}

// CreateTemplate stores a recurring template and returns its id.
func (r *SQLiteRepository) CreateTemplate(ctx context.Context, t core.RecurringTemplate) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_templates (every, start_date, kind, category, subcategory, description, amount, currency, instrument, memo, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(t.Every), t.StartDate.String(), string(t.Kind), t.Category, t.Subcategory,
		t.Description, t.Amount, string(t.Currency), t.Instrument, t.Memo, boolToInt(t.Active))
	if err != nil {
		return 0, fmt.Errorf("insert template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Recurring template saved",
		"id", id,
		"every", string(t.Every),
		"description", t.Description)
	return id, nil
}

// ListTemplates returns every stored template.
func (r *SQLiteRepository) ListTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	return r.queryTemplates(ctx,
		"SELECT "+templateColumns+" FROM recurring_templates ORDER BY id")
}

// ListActiveTemplates returns the templates the recurring worker should
// consider.
func (r *SQLiteRepository) ListActiveTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	return r.queryTemplates(ctx,
		"SELECT "+templateColumns+" FROM recurring_templates WHERE active = 1 ORDER BY id")
}

func (r *SQLiteRepository) queryTemplates(ctx context.Context, query string) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetTemplateActive toggles a template without losing its history.
func (r *SQLiteRepository) SetTemplateActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE recurring_templates SET active = ? WHERE id = ?", boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("set template active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTemplate removes a template permanently.
func (r *SQLiteRepository) DeleteTemplate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM recurring_templates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTemplateLastExecution records when a template last materialized.
func (r *SQLiteRepository) UpdateTemplateLastExecution(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE recurring_templates SET last_execution_date = ? WHERE id = ?",
		at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("update last execution: %w", err)
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
