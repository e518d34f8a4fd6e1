// Package reconcile turns heterogeneous stored rows into canonical
// transactions. The ledger sheet has been written by several generations of
// the app with different headers; the migration rules here run on every load,
// so each of them must be safe to apply to already-migrated data.
package reconcile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/llnuddill/account-book/internal/core"
)

// RawRow is a stored row as read from the sheet or a CSV file: header-keyed,
// with no type guarantees on the values.
type RawRow map[string]any

// RowError records a row that could not be reconciled, kept for user review.
type RowError struct {
	Index int // zero-based position in the input row set
	Row   RawRow
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

// Result is the outcome of a reconciliation pass. Skipped rows are the only
// rows ever dropped, and only for an unparsable date; everything else is
// recovered by defaulting.
type Result struct {
	Transactions []core.Transaction
	Skipped      []RowError
}

// renameRule moves a legacy field onto its current name. The rename never
// overwrites a populated destination, so newer data always wins.
type renameRule struct {
	src string
	dst string
}

// Ordered migration rules. New legacy generations get a new entry here
// instead of another branch in the reconciler.
var renames = []renameRule{
	{src: core.LegacyColKind, dst: core.ColKind},
	{src: core.LegacyColCategory, dst: core.ColCategory},
}

// Rows applies the full migration pipeline to a raw row set. Rules run in a
// fixed order: renames, instrument consolidation, defaults, coercion, sign
// normalization. The pass is idempotent; reconciling its own output yields
// identical transactions.
func Rows(rows []RawRow) Result {
	var res Result
	for i, row := range rows {
		tx, err := row.transaction()
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Index: i, Row: row, Err: err})
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}
	return res
}

// FromTable converts a header row plus value rows into raw rows, the shape
// the pipeline consumes. Short rows are padded with empty cells.
func FromTable(header []string, rows [][]string) []RawRow {
	out := make([]RawRow, 0, len(rows))
	for _, cells := range rows {
		row := make(RawRow, len(header))
		for i, name := range header {
			if i < len(cells) {
				row[name] = cells[i]
			} else {
				row[name] = ""
			}
		}
		out = append(out, row)
	}
	return out
}

func (r RawRow) transaction() (core.Transaction, error) {
	// 1. Field renaming.
	for _, rule := range renames {
		if _, hasNew := r[rule.dst]; hasNew {
			continue
		}
		if v, hasOld := r[rule.src]; hasOld {
			r = r.clone()
			r[rule.dst] = v
		}
	}

	// 2. Instrument consolidation: a real card name beats the generic method.
	instrument := text(r[core.ColInstrument])
	if card := text(r[core.LegacyColCard]); card != "" && card != "-" {
		instrument = card
	}

	// 3-4. Defaulting and coercion, field by field.
	date, err := core.ParseDate(text(r[core.ColDate]))
	if err != nil {
		return core.Transaction{}, err
	}

	currency := core.Currency(textDefault(r, core.ColCurrency, string(core.KRW)))
	subclass := core.Subclass(textDefault(r, core.ColSubclass, string(core.SubclassNone)))

	tx := core.Transaction{
		Date:        date,
		Time:        core.ParseTimeOfDay(text(r[core.ColTime])),
		Kind:        core.Kind(text(r[core.ColKind])),
		Subclass:    subclass,
		Category:    text(r[core.ColCategory]),
		Subcategory: text(r[core.ColSubcategory]),
		Description: text(r[core.ColDescription]),
		Amount:      amount(r[core.ColAmount]),
		Currency:    currency,
		Instrument:  instrument,
		Memo:        text(r[core.ColMemo]),
	}

	// 5. Sign normalization, idempotent by construction.
	return tx.NormalizeSign(), nil
}

func (r RawRow) clone() RawRow {
	out := make(RawRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// text renders a raw cell as a trimmed string, treating nil as empty.
func text(v any) string {
	if v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		// Sheets hand back numbers as float64; render integers without a
		// fractional part.
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func textDefault(r RawRow, key, def string) string {
	if v := text(r[key]); v != "" {
		return v
	}
	return def
}

// amount coerces a raw cell to a signed integer amount. Non-numeric values
// become 0, the recoverable-warning policy for malformed rows.
func amount(v any) int64 {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	s := text(v)
	if s == "" {
		return 0
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}
