// Package tiers computes card spending-tier achievement for a month.
package tiers

import (
	"github.com/llnuddill/account-book/internal/core"
)

// defaultMaxLimit stands in for the highest threshold when a card has no
// tiers, so the progress bar still has a denominator.
const defaultMaxLimit = 1_000_000

// TierStatus is the achievement state of a single tier.
type TierStatus struct {
	Limit     int64  `json:"limit"`
	Benefit   string `json:"benefit"`
	Achieved  bool   `json:"achieved"`
	Remaining int64  `json:"remaining"` // 0 once achieved
}

// CardReport is one card's spend and tier state for the period.
type CardReport struct {
	Card     string       `json:"card"`
	Year     int          `json:"year"`
	Month    int          `json:"month"`
	Spend    int64        `json:"spend"`
	Progress float64      `json:"progress"` // 0.0 - 1.0 against the highest threshold
	Tiers    []TierStatus `json:"tiers"`
}

// Evaluate reports per-card spend and tier achievement for the given month.
// Every registered card appears in registration order, including cards with
// no matching transactions. Only rows whose payment instrument equals a card
// name exactly count toward that card; the signed sum is made non-negative
// because expenses are stored negative.
func Evaluate(txs []core.Transaction, year, month int, cards []core.Card) []CardReport {
	spend := map[string]int64{}
	registered := map[string]bool{}
	for _, c := range cards {
		registered[c.Name] = true
	}
	for _, t := range txs {
		if !t.Date.In(year, month) || !registered[t.Instrument] {
			continue
		}
		spend[t.Instrument] += t.Amount
	}

	reports := make([]CardReport, 0, len(cards))
	for _, card := range cards {
		current := spend[card.Name]
		if current < 0 {
			current = -current
		}
		reports = append(reports, evaluateCard(card, year, month, current))
	}
	return reports
}

func evaluateCard(card core.Card, year, month int, current int64) CardReport {
	sorted := card.SortedTiers()

	maxLimit := int64(defaultMaxLimit)
	if len(sorted) > 0 {
		maxLimit = sorted[len(sorted)-1].Limit
	}
	var progress float64
	if maxLimit > 0 {
		progress = float64(current) / float64(maxLimit)
		if progress > 1.0 {
			progress = 1.0
		}
	}

	statuses := make([]TierStatus, 0, len(sorted))
	for _, tier := range sorted {
		st := TierStatus{Limit: tier.Limit, Benefit: tier.Benefit}
		if current >= tier.Limit {
			st.Achieved = true
		} else {
			st.Remaining = tier.Limit - current
		}
		statuses = append(statuses, st)
	}

	return CardReport{
		Card:     card.Name,
		Year:     year,
		Month:    month,
		Spend:    current,
		Progress: progress,
		Tiers:    statuses,
	}
}
