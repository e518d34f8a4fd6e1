package core

import (
	"errors"
	"sort"
	"strings"
)

// Tier is one spending threshold on a card. The JSON field names are the wire
// format used in the settings sheet.
type Tier struct {
	Limit   int64  `json:"limit"`
	Benefit string `json:"benefit"`
}

// Card is a registered payment card with its ordered benefit tiers.
type Card struct {
	Name  string `json:"name"`
	Tiers []Tier `json:"tiers"`
}

var (
	ErrEmptyCardName = errors.New("empty card name")
	ErrNegativeTier  = errors.New("negative tier threshold")
	ErrCardNotFound  = errors.New("card not registered")
)

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCardName
	}
	for _, t := range c.Tiers {
		if t.Limit < 0 {
			return ErrNegativeTier
		}
	}
	return nil
}

// SortedTiers returns the tiers ascending by threshold. The sort is stable so
// tiers sharing a threshold keep their registration order.
func (c Card) SortedTiers() []Tier {
	out := append([]Tier(nil), c.Tiers...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Limit < out[j].Limit })
	return out
}
