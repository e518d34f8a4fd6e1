package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/llnuddill/account-book/internal/core"
	"github.com/llnuddill/account-book/internal/storage"
)

// RecurringProcessor turns due recurring templates into real ledger entries.
type RecurringProcessor struct {
	storage *storage.SQLiteRepository
	ledger  *LedgerService
}

func NewRecurringProcessor(storage *storage.SQLiteRepository, ledger *LedgerService) *RecurringProcessor {
	return &RecurringProcessor{
		storage: storage,
		ledger:  ledger,
	}
}

// ProcessDueTemplates materializes every active template that is due and
// returns how many entries were created.
func (p *RecurringProcessor) ProcessDueTemplates(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.storage.ListActiveTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring templates",
		"total_active", len(templates),
		"processing_date", now.Format("2006-01-02"))

	processedCount := 0

	for _, tmpl := range templates {
		checker, err := GetDuenessChecker(tmpl.Every)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping template with unknown repetition",
				"id", tmpl.ID,
				"every", string(tmpl.Every))
			continue
		}

		if !checker.IsDue(tmpl.LastExecution, now, tmpl.StartDate) {
			continue
		}

		entry := tmpl.Transaction(core.Date{Time: now})
		if err := p.ledger.Append(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to create entry from template",
				"template_id", tmpl.ID,
				"description", tmpl.Description,
				"error", err)
			continue
		}

		if err := p.storage.UpdateTemplateLastExecution(ctx, tmpl.ID, now); err != nil {
			slog.ErrorContext(ctx, "Failed to update last execution date",
				"template_id", tmpl.ID,
				"error", err)
			// Continue anyway - the entry was created successfully
		}

		processedCount++
		slog.InfoContext(ctx, "Created entry from recurring template",
			"template_id", tmpl.ID,
			"description", tmpl.Description,
			"amount", tmpl.Amount,
			"frequency", string(tmpl.Every))
	}

	slog.InfoContext(ctx, "Recurring template processing complete",
		"processed", processedCount,
		"total_checked", len(templates))

	return processedCount, nil
}
