package csv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llnuddill/account-book/internal/core"
	"github.com/llnuddill/account-book/internal/reconcile"
)

func TestRoundTrip(t *testing.T) {
	txs := []core.Transaction{
		{
			Date:        core.NewDate(2025, 1, 5),
			Time:        core.TimeOfDay{Hour: 12, Minute: 30},
			Kind:        core.KindExpense,
			Subclass:    core.SubclassVariable,
			Category:    "식비",
			Description: "lunch",
			Amount:      -15000,
			Currency:    core.KRW,
			Instrument:  "Card A",
		},
		{
			Date:        core.NewDate(2025, 1, 25),
			Kind:        core.KindIncome,
			Subclass:    core.SubclassNone,
			Category:    "월급",
			Description: "salary",
			Amount:      3000000,
			Currency:    core.KRW,
			Instrument:  "-",
			Memo:        "january",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, txs))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\uFEFF"), "export must carry a BOM")
	assert.Contains(t, out, "-15000", "amount sign must survive export")

	rows, err := Read(&buf)
	require.NoError(t, err)
	res := reconcile.Rows(rows)
	require.Empty(t, res.Skipped)
	assert.Equal(t, txs, res.Transactions)
}

func TestReadHeaderOrderInsensitive(t *testing.T) {
	in := "금액,내용,날짜,타입,대분류,소분류,시간,화폐,결제수단,메모,세부구분\n" +
		"15000,lunch,2025-01-05,지출,식비,,,KRW,현금,,\n"
	rows, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	res := reconcile.Rows(rows)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, int64(-15000), res.Transactions[0].Amount)
}

func TestReadRejectsMissingColumns(t *testing.T) {
	in := "날짜,타입,대분류\n2025-01-05,지출,식비\n"
	_, err := Read(strings.NewReader(in))
	require.ErrorIs(t, err, ErrMissingColumns)
}

func TestReadRejectsExtraColumns(t *testing.T) {
	in := strings.Join(append(core.Columns(), "extra"), ",") + "\n"
	_, err := Read(strings.NewReader(in))
	require.ErrorIs(t, err, ErrMissingColumns)
}

func TestReadEmptyFile(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyFile)
}
