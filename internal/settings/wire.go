package settings

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/llnuddill/account-book/internal/core"
)

// Entry is one row of the flat settings wire format: a (kind, key, value)
// triple. Categories, payment methods and years use an empty key; card tiers
// use key = card name and a JSON-encoded tier array as the value.
type Entry struct {
	Kind  string
	Key   string
	Value string
}

// Wire kinds, as stored in the settings worksheet since the first version.
const (
	EntryIncomeCategory  = "cat_income"
	EntryExpenseCategory = "cat_expense"
	EntrySavingCategory  = "cat_saving"
	EntryPaymentMethod   = "payment_methods"
	EntryYear            = "available_years"
	EntryCardTier        = "card_tier"
)

// Encode flattens settings into wire entries. Order inside each section is
// preserved, so a decode round-trip keeps registration order.
func Encode(s Settings) []Entry {
	var out []Entry
	for _, c := range s.IncomeCategories {
		out = append(out, Entry{Kind: EntryIncomeCategory, Value: c})
	}
	for _, c := range s.ExpenseCategories {
		out = append(out, Entry{Kind: EntryExpenseCategory, Value: c})
	}
	for _, c := range s.SavingCategories {
		out = append(out, Entry{Kind: EntrySavingCategory, Value: c})
	}
	for _, m := range s.PaymentMethods {
		out = append(out, Entry{Kind: EntryPaymentMethod, Value: m})
	}
	for _, y := range s.Years {
		out = append(out, Entry{Kind: EntryYear, Value: strconv.Itoa(y)})
	}
	for _, card := range s.Cards {
		tiers, err := json.Marshal(card.Tiers)
		if err != nil {
			// Tiers are plain ints and strings; this cannot fail in practice.
			tiers = []byte("[]")
		}
		out = append(out, Entry{Kind: EntryCardTier, Key: card.Name, Value: string(tiers)})
	}
	return out
}

// Decode rebuilds settings from wire entries. Unknown kinds are ignored so a
// newer app version can add sections without breaking older readers.
func Decode(entries []Entry) (Settings, error) {
	var s Settings
	for _, e := range entries {
		switch e.Kind {
		case EntryIncomeCategory:
			s.IncomeCategories = append(s.IncomeCategories, e.Value)
		case EntryExpenseCategory:
			s.ExpenseCategories = append(s.ExpenseCategories, e.Value)
		case EntrySavingCategory:
			s.SavingCategories = append(s.SavingCategories, e.Value)
		case EntryPaymentMethod:
			s.PaymentMethods = append(s.PaymentMethods, e.Value)
		case EntryYear:
			y, err := strconv.Atoi(e.Value)
			if err != nil {
				return Settings{}, fmt.Errorf("settings year %q: %w", e.Value, err)
			}
			s.Years = append(s.Years, y)
		case EntryCardTier:
			var tiers []core.Tier
			if err := json.Unmarshal([]byte(e.Value), &tiers); err != nil {
				return Settings{}, fmt.Errorf("settings card %q tiers: %w", e.Key, err)
			}
			s.Cards = append(s.Cards, core.Card{Name: e.Key, Tiers: tiers})
		}
	}
	return s, nil
}

// IsEmpty reports whether no section carries any data, the condition for
// falling back to Default().
func (s Settings) IsEmpty() bool {
	return len(s.IncomeCategories) == 0 && len(s.ExpenseCategories) == 0 &&
		len(s.SavingCategories) == 0 && len(s.PaymentMethods) == 0 &&
		len(s.Cards) == 0 && len(s.Years) == 0
}
