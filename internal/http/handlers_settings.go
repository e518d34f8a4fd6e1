package http

import (
	"net/http"
	"strconv"

	"github.com/llnuddill/account-book/internal/core"
	"github.com/llnuddill/account-book/internal/settings"
)

type settingsPayload struct {
	IncomeCategories  []string    `json:"income_categories"`
	ExpenseCategories []string    `json:"expense_categories"`
	SavingCategories  []string    `json:"saving_categories"`
	PaymentMethods    []string    `json:"payment_methods"`
	Cards             []core.Card `json:"cards"`
	Years             []int       `json:"years"`
}

func settingsPayloadFrom(cfg settings.Settings) settingsPayload {
	return settingsPayload{
		IncomeCategories:  cfg.IncomeCategories,
		ExpenseCategories: cfg.ExpenseCategories,
		SavingCategories:  cfg.SavingCategories,
		PaymentMethods:    cfg.PaymentMethods,
		Cards:             cfg.Cards,
		Years:             cfg.Years,
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.ledger.Settings(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsPayloadFrom(cfg))
}

// mutateSettings loads the stored taxonomy, applies fn, and persists the
// result. Mutation errors map to domain statuses, persistence errors to 500.
func (s *Server) mutateSettings(w http.ResponseWriter, r *http.Request, fn func(*settings.Settings) error) {
	cfg, err := s.ledger.Settings(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := fn(&cfg); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.ledger.SaveSettings(r.Context(), cfg); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsPayloadFrom(cfg))
}

type categoryRequest struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mutateSettings(w, r, func(cfg *settings.Settings) error {
		return cfg.AddCategory(core.Kind(sanitizeInput(req.Kind)), sanitizeInput(req.Name))
	})
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	kind := sanitizeInput(r.URL.Query().Get("kind"))
	name := sanitizeInput(r.URL.Query().Get("name"))
	s.mutateSettings(w, r, func(cfg *settings.Settings) error {
		return cfg.RemoveCategory(core.Kind(kind), name)
	})
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mutateSettings(w, r, func(cfg *settings.Settings) error {
		return cfg.AddPaymentMethod(sanitizeInput(req.Name))
	})
}

func (s *Server) handleRemovePaymentMethod(w http.ResponseWriter, r *http.Request) {
	name := sanitizeInput(r.URL.Query().Get("name"))
	s.mutateSettings(w, r, func(cfg *settings.Settings) error {
		return cfg.RemovePaymentMethod(name)
	})
}

type yearRequest struct {
	Year int `json:"year"`
}

func (s *Server) handleAddYear(w http.ResponseWriter, r *http.Request) {
	var req yearRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mutateSettings(w, r, func(cfg *settings.Settings) error {
		return cfg.AddYear(req.Year)
	})
}

func (s *Server) handleRemoveYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	s.mutateSettings(w, r, func(cfg *settings.Settings) error {
		return cfg.RemoveYear(year)
	})
}

func (s *Server) handleRegisterCard(w http.ResponseWriter, r *http.Request) {
	var card core.Card
	if err := decodeJSON(r, &card); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	card.Name = sanitizeInput(card.Name)
	s.mutateSettings(w, r, func(cfg *settings.Settings) error {
		return cfg.RegisterCard(card)
	})
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	name := sanitizeInput(r.PathValue("name"))
	s.mutateSettings(w, r, func(cfg *settings.Settings) error {
		return cfg.DeleteCard(name)
	})
}
