package http

import (
	"net/http"
	"strconv"

	"github.com/llnuddill/account-book/internal/core"
)

// transactionPayload is the JSON shape of a ledger entry. Row is the position
// in the full ordered table and identifies an entry for update and delete.
type transactionPayload struct {
	Row         int    `json:"row,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	Kind        string `json:"kind"`
	Subclass    string `json:"subclass,omitempty"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency,omitempty"`
	Instrument  string `json:"instrument,omitempty"`
	Memo        string `json:"memo,omitempty"`
}

func (p transactionPayload) toDomain() (core.Transaction, error) {
	date, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		Date:        date,
		Time:        core.ParseTimeOfDay(p.Time),
		Kind:        core.Kind(sanitizeInput(p.Kind)),
		Subclass:    core.Subclass(sanitizeInput(p.Subclass)),
		Category:    sanitizeInput(p.Category),
		Subcategory: sanitizeInput(p.Subcategory),
		Description: sanitizeInput(p.Description),
		Amount:      p.Amount,
		Currency:    core.Currency(sanitizeInput(p.Currency)),
		Instrument:  sanitizeInput(p.Instrument),
		Memo:        sanitizeInput(p.Memo),
	}
	if t.Currency == "" {
		t.Currency = core.KRW
	}
	if t.Subclass == "" {
		if t.Kind == core.KindExpense {
			t.Subclass = core.SubclassVariable
		} else {
			t.Subclass = core.SubclassNone
		}
	}
	return t, nil
}

func payloadFrom(row int, t core.Transaction) transactionPayload {
	return transactionPayload{
		Row:         row,
		Date:        t.Date.String(),
		Time:        t.Time.String(),
		Kind:        string(t.Kind),
		Subclass:    string(t.Subclass),
		Category:    t.Category,
		Subcategory: t.Subcategory,
		Description: t.Description,
		Amount:      t.Amount,
		Currency:    string(t.Currency),
		Instrument:  t.Instrument,
		Memo:        t.Memo,
	}
}

// handleListTransactions returns the entries for a month. Rows keep their
// position in the full table so they can address updates and deletes.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	all, err := s.ledger.Load(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	items := make([]transactionPayload, 0)
	for i, t := range all {
		if t.Date.In(year, month) {
			items = append(items, payloadFrom(i, t))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":         year,
		"month":        month,
		"transactions": items,
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := payload.toDomain()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := s.ledger.Append(r.Context(), t); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.logs.LogTransactionCreated(r.Context(), string(t.Kind), t.Category, t.Description, t.Amount)
	writeJSON(w, http.StatusCreated, payloadFrom(0, t.NormalizeSign()))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(r.PathValue("row"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid row")
		return
	}

	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := payload.toDomain()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := s.ledger.Update(r.Context(), row, t); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payloadFrom(row, t.NormalizeSign()))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(r.PathValue("row"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid row")
		return
	}

	if err := s.ledger.Delete(r.Context(), row); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
