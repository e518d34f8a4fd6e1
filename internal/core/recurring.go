package core

import (
	"errors"
	"fmt"
	"time"
)

// Repetition is how often a recurring template materializes.
type Repetition string

const (
	Daily   Repetition = "daily"
	Weekly  Repetition = "weekly"
	Monthly Repetition = "monthly"
	Yearly  Repetition = "yearly"
)

var ErrInvalidRepetition = errors.New("invalid repetition")

func (r Repetition) IsValid() bool {
	switch r {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// RecurringTemplate is a transaction blueprint that the recurring worker
// turns into real ledger entries on schedule. Materialized entries always
// carry the fixed subclass.
type RecurringTemplate struct {
	ID            int64
	Every         Repetition
	StartDate     Date
	Kind          Kind
	Category      string
	Subcategory   string
	Description   string
	Amount        int64
	Currency      Currency
	Instrument    string
	Memo          string
	Active        bool
	LastExecution time.Time
}

func (t RecurringTemplate) Validate() error {
	if !t.Every.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRepetition, t.Every)
	}
	if err := t.StartDate.Validate(); err != nil {
		return err
	}
	first := t.Transaction(t.StartDate)
	return first.Validate()
}

// Transaction materializes the template as a ledger entry dated on the given
// day.
func (t RecurringTemplate) Transaction(on Date) Transaction {
	currency := t.Currency
	if currency == "" {
		currency = KRW
	}
	tx := Transaction{
		Date:        on,
		Time:        TimeOfDay{},
		Kind:        t.Kind,
		Subclass:    SubclassFixed,
		Category:    t.Category,
		Subcategory: t.Subcategory,
		Description: t.Description,
		Amount:      t.Amount,
		Currency:    currency,
		Instrument:  t.Instrument,
		Memo:        t.Memo,
	}
	return tx.NormalizeSign()
}
