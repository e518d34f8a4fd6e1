package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/llnuddill/account-book/internal/core"
)

// templatePayload is the JSON shape of a recurring entry template.
type templatePayload struct {
	ID            int64  `json:"id,omitempty"`
	Every         string `json:"every"`
	StartDate     string `json:"start_date"`
	Kind          string `json:"kind"`
	Category      string `json:"category"`
	Subcategory   string `json:"subcategory,omitempty"`
	Description   string `json:"description"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency,omitempty"`
	Instrument    string `json:"instrument,omitempty"`
	Memo          string `json:"memo,omitempty"`
	Active        bool   `json:"active"`
	LastExecution string `json:"last_execution,omitempty"`
}

func (p templatePayload) toDomain() (core.RecurringTemplate, error) {
	start, err := core.ParseDate(p.StartDate)
	if err != nil {
		return core.RecurringTemplate{}, err
	}
	return core.RecurringTemplate{
		ID:          p.ID,
		Every:       core.Repetition(sanitizeInput(p.Every)),
		StartDate:   start,
		Kind:        core.Kind(sanitizeInput(p.Kind)),
		Category:    sanitizeInput(p.Category),
		Subcategory: sanitizeInput(p.Subcategory),
		Description: sanitizeInput(p.Description),
		Amount:      p.Amount,
		Currency:    core.Currency(sanitizeInput(p.Currency)),
		Instrument:  sanitizeInput(p.Instrument),
		Memo:        sanitizeInput(p.Memo),
		Active:      p.Active,
	}, nil
}

func templatePayloadFrom(t core.RecurringTemplate) templatePayload {
	p := templatePayload{
		ID:          t.ID,
		Every:       string(t.Every),
		StartDate:   t.StartDate.String(),
		Kind:        string(t.Kind),
		Category:    t.Category,
		Subcategory: t.Subcategory,
		Description: t.Description,
		Amount:      t.Amount,
		Currency:    string(t.Currency),
		Instrument:  t.Instrument,
		Memo:        t.Memo,
		Active:      t.Active,
	}
	if !t.LastExecution.IsZero() {
		p.LastExecution = t.LastExecution.Format(time.RFC3339)
	}
	return p
}

// requireRepo answers 503 when no local database backs the server. Templates
// live in sqlite only, never in the sheet.
func (s *Server) requireRepo(w http.ResponseWriter) bool {
	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "recurring templates require the sqlite backend")
		return false
	}
	return true
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}

	templates, err := s.repo.ListTemplates(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	items := make([]templatePayload, 0, len(templates))
	for _, t := range templates {
		items = append(items, templatePayloadFrom(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": items})
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}

	var payload templatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tmpl, err := payload.toDomain()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	tmpl.Active = true
	if err := tmpl.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	id, err := s.repo.CreateTemplate(r.Context(), tmpl)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	tmpl.ID = id
	writeJSON(w, http.StatusCreated, templatePayloadFrom(tmpl))
}

type templateActiveRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleSetTemplateActive(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	var req templateActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.repo.SetTemplateActive(r.Context(), id, req.Active); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": req.Active})
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	if err := s.repo.DeleteTemplate(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
