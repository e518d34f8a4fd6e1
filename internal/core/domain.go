package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "수입"
	KindExpense Kind = "지출"
	KindSaving  Kind = "저축"
)

const (
	SubclassFixed    Subclass = "고정지출"
	SubclassVariable Subclass = "비고정지출"
	SubclassNone     Subclass = "-"
)

const (
	KRW Currency = "KRW"
	USD Currency = "USD"
	JPY Currency = "JPY"
	EUR Currency = "EUR"
	CNY Currency = "CNY"
)

type (
	// Kind is the transaction direction. Wire values are the Korean labels
	// stored in the sheet since the first schema generation.
	Kind string

	// Subclass splits expenses into fixed and variable. "-" for non-expenses.
	Subclass string

	Currency string

	Date struct {
		time.Time
	}

	// TimeOfDay is a wall-clock time without a date. Seconds are kept because
	// older rows recorded them.
	TimeOfDay struct {
		Hour   int
		Minute int
		Second int
	}

	// Transaction is a single canonical ledger entry. Amount is stored in
	// currency minor-unit-free integers, negative for expenses and
	// non-negative for income and saving, so summaries are plain sums.
	Transaction struct {
		Date        Date
		Time        TimeOfDay
		Kind        Kind
		Subclass    Subclass
		Category    string
		Subcategory string
		Description string
		Amount      int64
		Currency    Currency
		Instrument  string
		Memo        string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidKind      = errors.New("invalid kind")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyDescription = errors.New("empty description")
)

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a stored date string. Sheets historically carried plain
// YYYY-MM-DD, but rows edited elsewhere show up with slashes or a trailing
// time component.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	layouts := []string{"2006-01-02", "2006/01/02", "2006.01.02", "2006-01-02 15:04:05", time.RFC3339}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Year returns the calendar year.
func (d Date) Year() int { return d.Time.Year() }

// Month returns the calendar month as 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// String renders the persisted form, YYYY-MM-DD.
func (d Date) String() string { return d.Format("2006-01-02") }

// In reports whether the date falls inside the given year and month.
func (d Date) In(year, month int) bool {
	return d.Year() == year && d.Month() == month
}

// ParseTimeOfDay parses HH:MM:SS, then HH:MM. Anything else falls back to
// midnight, matching how legacy rows without a time column are loaded.
func ParseTimeOfDay(s string) TimeOfDay {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
		}
	}
	return TimeOfDay{}
}

// String renders HH:MM, or HH:MM:SS when seconds are present.
func (t TimeOfDay) String() string {
	if t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// IsValid reports whether k is one of the three transaction kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindIncome, KindExpense, KindSaving:
		return true
	}
	return false
}

// IsValid reports whether s is a known subclass value.
func (s Subclass) IsValid() bool {
	switch s {
	case SubclassFixed, SubclassVariable, SubclassNone:
		return true
	}
	return false
}

// Validate checks the canonical invariants: a real date, a known kind, a
// non-empty category and description, and the sign rule on the amount.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(t.Kind))
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if t.Kind == KindExpense && t.Amount > 0 {
		return fmt.Errorf("%w: expense amount must be <= 0, got %d", ErrInvalidAmount, t.Amount)
	}
	if t.Kind != KindExpense && t.Amount < 0 {
		return fmt.Errorf("%w: %s amount must be >= 0, got %d", ErrInvalidAmount, t.Kind, t.Amount)
	}
	return nil
}

// NormalizeSign returns a copy with the sign convention applied: expenses go
// negative, everything else positive. Applying it twice is a no-op.
func (t Transaction) NormalizeSign() Transaction {
	if t.Kind == KindExpense && t.Amount > 0 {
		t.Amount = -t.Amount
	}
	return t
}
