package tiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llnuddill/account-book/internal/core"
)

func tx(day int, instrument string, amount int64) core.Transaction {
	kind := core.KindExpense
	if amount > 0 {
		kind = core.KindIncome
	}
	return core.Transaction{
		Date:        core.NewDate(2025, 1, day),
		Kind:        kind,
		Category:    "식비",
		Description: "t",
		Amount:      amount,
		Currency:    core.KRW,
		Instrument:  instrument,
	}
}

func TestAchievementBoundary(t *testing.T) {
	cards := []core.Card{{Name: "Card A", Tiers: []core.Tier{
		{Limit: 300000, Benefit: "A"},
		{Limit: 600000, Benefit: "B"},
	}}}
	reports := Evaluate([]core.Transaction{tx(5, "Card A", -300000)}, 2025, 1, cards)
	require.Len(t, reports, 1)

	r := reports[0]
	assert.Equal(t, int64(300000), r.Spend)
	require.Len(t, r.Tiers, 2)
	assert.True(t, r.Tiers[0].Achieved)
	assert.Equal(t, int64(0), r.Tiers[0].Remaining)
	assert.False(t, r.Tiers[1].Achieved)
	assert.Equal(t, int64(300000), r.Tiers[1].Remaining)
}

func TestProgressCappedAtOne(t *testing.T) {
	cards := []core.Card{{Name: "Card A", Tiers: []core.Tier{{Limit: 600000, Benefit: "B"}}}}
	reports := Evaluate([]core.Transaction{tx(5, "Card A", -900000)}, 2025, 1, cards)
	assert.Equal(t, 1.0, reports[0].Progress)
}

func TestZeroSpendCardStillReported(t *testing.T) {
	cards := []core.Card{
		{Name: "Card A", Tiers: []core.Tier{{Limit: 10000, Benefit: "coupon"}}},
		{Name: "Card B", Tiers: []core.Tier{{Limit: 50000, Benefit: "points"}}},
	}
	reports := Evaluate([]core.Transaction{tx(5, "Card A", -15000)}, 2025, 1, cards)
	require.Len(t, reports, 2)

	// Registration order preserved.
	assert.Equal(t, "Card A", reports[0].Card)
	assert.Equal(t, "Card B", reports[1].Card)

	assert.Equal(t, int64(0), reports[1].Spend)
	assert.False(t, reports[1].Tiers[0].Achieved)
	assert.Equal(t, int64(50000), reports[1].Tiers[0].Remaining)
}

func TestUnregisteredInstrumentExcluded(t *testing.T) {
	cards := []core.Card{{Name: "Card A", Tiers: []core.Tier{{Limit: 10000, Benefit: "c"}}}}
	reports := Evaluate([]core.Transaction{
		tx(5, "Card A", -15000),
		tx(6, "card a", -99000), // case differs, not the registered name
		tx(7, "현금", -5000),
	}, 2025, 1, cards)
	assert.Equal(t, int64(15000), reports[0].Spend)
}

func TestPeriodFilter(t *testing.T) {
	cards := []core.Card{{Name: "Card A"}}
	other := tx(5, "Card A", -15000)
	other.Date = core.NewDate(2025, 2, 5)
	reports := Evaluate([]core.Transaction{tx(5, "Card A", -10000), other}, 2025, 1, cards)
	assert.Equal(t, int64(10000), reports[0].Spend)
}

func TestTierlessCardProgress(t *testing.T) {
	cards := []core.Card{{Name: "Card A"}}
	reports := Evaluate([]core.Transaction{tx(5, "Card A", -500000)}, 2025, 1, cards)
	r := reports[0]
	assert.Empty(t, r.Tiers)
	assert.InDelta(t, 0.5, r.Progress, 1e-9) // against the 1,000,000 default
}

func TestZeroThresholdProgressGuard(t *testing.T) {
	cards := []core.Card{{Name: "Card A", Tiers: []core.Tier{{Limit: 0, Benefit: "always"}}}}
	reports := Evaluate([]core.Transaction{tx(5, "Card A", -500)}, 2025, 1, cards)
	r := reports[0]
	assert.Equal(t, 0.0, r.Progress)
	assert.True(t, r.Tiers[0].Achieved)
}

func TestStableSortForDuplicateThresholds(t *testing.T) {
	cards := []core.Card{{Name: "Card A", Tiers: []core.Tier{
		{Limit: 300000, Benefit: "first"},
		{Limit: 100000, Benefit: "low"},
		{Limit: 300000, Benefit: "second"},
	}}}
	reports := Evaluate(nil, 2025, 1, cards)
	r := reports[0]
	require.Len(t, r.Tiers, 3)
	assert.Equal(t, "low", r.Tiers[0].Benefit)
	assert.Equal(t, "first", r.Tiers[1].Benefit)
	assert.Equal(t, "second", r.Tiers[2].Benefit)
}

func TestMixedKindContributions(t *testing.T) {
	// A refund routed through the card sums by the same signed rule before
	// the absolute value is taken.
	cards := []core.Card{{Name: "Card A"}}
	reports := Evaluate([]core.Transaction{
		tx(5, "Card A", -30000),
		tx(6, "Card A", 10000),
	}, 2025, 1, cards)
	assert.Equal(t, int64(20000), reports[0].Spend)
}
