package core

import "strconv"

// Canonical column headers, shared by the sheet, the CSV contract and the
// SQLite cache. Older schema generations used 구분 and 카테고리; the reconciler
// maps those onto the current names.
const (
	ColDate        = "날짜"
	ColTime        = "시간"
	ColKind        = "타입"
	ColCategory    = "대분류"
	ColSubcategory = "소분류"
	ColDescription = "내용"
	ColAmount      = "금액"
	ColCurrency    = "화폐"
	ColInstrument  = "결제수단"
	ColMemo        = "메모"
	ColSubclass    = "세부구분"
)

// Legacy headers recognized during reconciliation.
const (
	LegacyColKind     = "구분"
	LegacyColCategory = "카테고리"
	LegacyColCard     = "카드명"
)

// Columns returns the canonical column order used everywhere a transaction
// becomes a row: sheet saves, CSV files, API tables.
func Columns() []string {
	return []string{
		ColDate, ColTime, ColKind, ColCategory, ColSubcategory,
		ColDescription, ColAmount, ColCurrency, ColInstrument,
		ColMemo, ColSubclass,
	}
}

// Record serializes the transaction into canonical column order. Dates render
// as YYYY-MM-DD and times as HH:MM[:SS]; the amount keeps its sign.
func (t Transaction) Record() []string {
	return []string{
		t.Date.String(),
		t.Time.String(),
		string(t.Kind),
		t.Category,
		t.Subcategory,
		t.Description,
		strconv.FormatInt(t.Amount, 10),
		string(t.Currency),
		t.Instrument,
		t.Memo,
		string(t.Subclass),
	}
}

// Table serializes transactions into a header-plus-rows matrix in canonical
// column order, the wholesale form every persistence write uses.
func Table(txs []Transaction) [][]string {
	rows := make([][]string, 0, len(txs)+1)
	rows = append(rows, Columns())
	for _, t := range txs {
		rows = append(rows, t.Record())
	}
	return rows
}
