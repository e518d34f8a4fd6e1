package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/llnuddill/account-book/internal/core"
)

type categoryAmountPayload struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

type monthReportPayload struct {
	Year       int                     `json:"year"`
	Month      int                     `json:"month"`
	Income     int64                   `json:"income"`
	Expense    int64                   `json:"expense"`
	Saving     int64                   `json:"saving"`
	Net        int64                   `json:"net"`
	ByCategory []categoryAmountPayload `json:"by_category"`
}

type yearReportPayload struct {
	Year    int       `json:"year"`
	Income  [12]int64 `json:"income"`
	Expense [12]int64 `json:"expense"`
	Saving  [12]int64 `json:"saving"`
}

func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	sum, err := s.ledger.MonthSummary(r.Context(), year, month)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, monthReportFrom(sum))
}

func monthReportFrom(sum core.MonthSummary) monthReportPayload {
	p := monthReportPayload{
		Year:       sum.Year,
		Month:      sum.Month,
		Income:     sum.Income,
		Expense:    sum.Expense,
		Saving:     sum.Saving,
		Net:        sum.Income + sum.Expense - sum.Saving,
		ByCategory: make([]categoryAmountPayload, 0, len(sum.ByCategory)),
	}
	for _, c := range sum.ByCategory {
		p.ByCategory = append(p.ByCategory, categoryAmountPayload{Name: c.Name, Amount: c.Amount})
	}
	return p
}

func (s *Server) handleYearReport(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}

	pivot, err := s.ledger.YearPivot(r.Context(), year)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, yearReportPayload{
		Year:    pivot.Year,
		Income:  pivot.Income,
		Expense: pivot.Expense,
		Saving:  pivot.Saving,
	})
}

func (s *Server) handleCardReports(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	reports, err := s.ledger.CardReports(r.Context(), year, month)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": month,
		"cards": reports,
	})
}
