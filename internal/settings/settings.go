// Package settings holds the user-configurable taxonomy: categories per
// transaction kind, payment methods, registered cards, and selectable years.
// It is an explicit value passed into the components that need it; nothing
// here is ambient state.
package settings

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/llnuddill/account-book/internal/core"
)

var (
	ErrDuplicateItem = errors.New("item already exists")
	ErrItemNotFound  = errors.New("item not found")
	ErrEmptyItem     = errors.New("empty item name")
	ErrUnknownKind   = errors.New("unknown transaction kind")
)

// Settings is the full taxonomy. Card order is registration order; the tier
// report iterates it as-is.
type Settings struct {
	IncomeCategories  []string
	ExpenseCategories []string
	SavingCategories  []string
	PaymentMethods    []string
	Cards             []core.Card
	Years             []int
}

// Default returns the built-in taxonomy used when no stored settings exist.
func Default() Settings {
	return Settings{
		IncomeCategories:  []string{"월급", "부수입", "보너스", "이월금", "기타"},
		ExpenseCategories: []string{"식비", "주거/통신", "생활용품", "의복/미용", "건강/문화", "교통/차량", "육아/교육", "경조사/회비", "기타"},
		SavingCategories:  []string{"적금", "예금", "투자", "비상금", "기타"},
		PaymentMethods:    []string{"신용카드", "체크카드", "현금", "계좌이체"},
		Years:             []int{time.Now().Year()},
	}
}

// Categories returns the category list for a transaction kind.
func (s *Settings) Categories(kind core.Kind) ([]string, error) {
	switch kind {
	case core.KindIncome:
		return s.IncomeCategories, nil
	case core.KindExpense:
		return s.ExpenseCategories, nil
	case core.KindSaving:
		return s.SavingCategories, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
}

// AddCategory appends a category for the kind, rejecting duplicates.
func (s *Settings) AddCategory(kind core.Kind, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyItem
	}
	list, err := s.Categories(kind)
	if err != nil {
		return err
	}
	if slices.Contains(list, name) {
		return fmt.Errorf("%w: %q", ErrDuplicateItem, name)
	}
	switch kind {
	case core.KindIncome:
		s.IncomeCategories = append(s.IncomeCategories, name)
	case core.KindExpense:
		s.ExpenseCategories = append(s.ExpenseCategories, name)
	case core.KindSaving:
		s.SavingCategories = append(s.SavingCategories, name)
	}
	return nil
}

// RemoveCategory deletes a category for the kind.
func (s *Settings) RemoveCategory(kind core.Kind, name string) error {
	list, err := s.Categories(kind)
	if err != nil {
		return err
	}
	i := slices.Index(list, name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrItemNotFound, name)
	}
	out := slices.Delete(slices.Clone(list), i, i+1)
	switch kind {
	case core.KindIncome:
		s.IncomeCategories = out
	case core.KindExpense:
		s.ExpenseCategories = out
	case core.KindSaving:
		s.SavingCategories = out
	}
	return nil
}

// AddPaymentMethod appends a payment method, rejecting duplicates.
func (s *Settings) AddPaymentMethod(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyItem
	}
	if slices.Contains(s.PaymentMethods, name) {
		return fmt.Errorf("%w: %q", ErrDuplicateItem, name)
	}
	s.PaymentMethods = append(s.PaymentMethods, name)
	return nil
}

// RemovePaymentMethod deletes a payment method.
func (s *Settings) RemovePaymentMethod(name string) error {
	i := slices.Index(s.PaymentMethods, name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrItemNotFound, name)
	}
	s.PaymentMethods = slices.Delete(s.PaymentMethods, i, i+1)
	return nil
}

// AddYear adds a selectable year, rejecting duplicates.
func (s *Settings) AddYear(year int) error {
	if slices.Contains(s.Years, year) {
		return fmt.Errorf("%w: %d", ErrDuplicateItem, year)
	}
	s.Years = append(s.Years, year)
	return nil
}

// RemoveYear deletes a selectable year.
func (s *Settings) RemoveYear(year int) error {
	i := slices.Index(s.Years, year)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrItemNotFound, year)
	}
	s.Years = slices.Delete(s.Years, i, i+1)
	return nil
}

// RegisterCard adds a card or replaces an existing one with the same name,
// keeping its original position. Tiers are validated at this boundary;
// the evaluator itself does not re-check them.
func (s *Settings) RegisterCard(card core.Card) error {
	if err := card.Validate(); err != nil {
		return err
	}
	for i, existing := range s.Cards {
		if existing.Name == card.Name {
			s.Cards[i] = card
			return nil
		}
	}
	s.Cards = append(s.Cards, card)
	return nil
}

// DeleteCard removes a registered card by name.
func (s *Settings) DeleteCard(name string) error {
	for i, c := range s.Cards {
		if c.Name == name {
			s.Cards = slices.Delete(s.Cards, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", core.ErrCardNotFound, name)
}

// Card looks up a registered card by exact name.
func (s *Settings) Card(name string) (core.Card, bool) {
	for _, c := range s.Cards {
		if c.Name == name {
			return c, true
		}
	}
	return core.Card{}, false
}
