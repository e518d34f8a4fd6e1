package core

// CategoryAmount is an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount int64
}

// MonthSummary holds the per-kind totals for a year+month. Expense is a
// negative sum under the sign convention.
type MonthSummary struct {
	Year       int
	Month      int // 1-12
	Income     int64
	Expense    int64
	Saving     int64
	ByCategory []CategoryAmount
}

// YearPivot is the month-by-kind matrix behind the annual report. Index 0 is
// January.
type YearPivot struct {
	Year    int
	Income  [12]int64
	Expense [12]int64
	Saving  [12]int64
}

// SummarizeMonth aggregates the month's transactions by kind and by category.
// Category order follows first appearance in the input.
func SummarizeMonth(txs []Transaction, year, month int) MonthSummary {
	s := MonthSummary{Year: year, Month: month}
	byCat := map[string]int64{}
	var order []string
	for _, t := range txs {
		if !t.Date.In(year, month) {
			continue
		}
		switch t.Kind {
		case KindIncome:
			s.Income += t.Amount
		case KindExpense:
			s.Expense += t.Amount
		case KindSaving:
			s.Saving += t.Amount
		}
		if _, seen := byCat[t.Category]; !seen {
			order = append(order, t.Category)
		}
		byCat[t.Category] += t.Amount
	}
	for _, name := range order {
		s.ByCategory = append(s.ByCategory, CategoryAmount{Name: name, Amount: byCat[name]})
	}
	return s
}

// SummarizeYear builds the annual pivot of signed sums per month and kind.
func SummarizeYear(txs []Transaction, year int) YearPivot {
	p := YearPivot{Year: year}
	for _, t := range txs {
		if t.Date.Year() != year {
			continue
		}
		i := t.Date.Month() - 1
		switch t.Kind {
		case KindIncome:
			p.Income[i] += t.Amount
		case KindExpense:
			p.Expense[i] += t.Amount
		case KindSaving:
			p.Saving[i] += t.Amount
		}
	}
	return p
}
