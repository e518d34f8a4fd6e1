// Package csv implements the ledger CSV import/export contract: the 11
// canonical columns, order-insensitive on import, UTF-8 with BOM on export.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/llnuddill/account-book/internal/core"
	"github.com/llnuddill/account-book/internal/reconcile"
)

// utf8BOM is prepended on export so spreadsheet programs detect the encoding.
const utf8BOM = "\uFEFF"

var (
	ErrEmptyFile      = errors.New("csv file is empty")
	ErrMissingColumns = errors.New("csv header missing required columns")
)

// Read parses an uploaded ledger CSV into raw rows ready for reconciliation.
// The header must contain every canonical column name; order does not matter
// and extra columns are rejected, matching the import contract. A leading BOM
// is tolerated.
func Read(r io.Reader) ([]reconcile.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	return reconcile.FromTable(header, records[1:]), nil
}

// Write serializes the canonical table: BOM, header row, one record per
// transaction, amounts unchanged.
func Write(w io.Writer, txs []core.Transaction) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(core.Columns()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txs {
		if err := cw.Write(tx.Record()); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

func validateHeader(header []string) error {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, want := range core.Columns() {
		if !have[want] {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	if len(have) > len(core.Columns()) {
		return fmt.Errorf("%w: unexpected extra columns in header", ErrMissingColumns)
	}
	return nil
}
