package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/llnuddill/account-book/internal/auth"
	"github.com/llnuddill/account-book/internal/core"
	"github.com/llnuddill/account-book/internal/csv"
	"github.com/llnuddill/account-book/internal/services"
	"github.com/llnuddill/account-book/internal/settings"
	"github.com/llnuddill/account-book/internal/storage"
)

// maxBodyBytes caps request bodies. CSV imports go through a separate limit.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encoding failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeDomainError maps known domain errors to HTTP status codes and falls
// back to 500 for everything else.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrRowOutOfRange),
		errors.Is(err, settings.ErrItemNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, core.ErrCardNotFound):
		return http.StatusNotFound
	case errors.Is(err, settings.ErrDuplicateItem),
		errors.Is(err, auth.ErrDuplicateUser):
		return http.StatusConflict
	case errors.Is(err, auth.ErrUnknownUser),
		errors.Is(err, auth.ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.Is(err, csv.ErrEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, csv.ErrMissingColumns),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrInvalidRepetition),
		errors.Is(err, core.ErrEmptyCardName),
		errors.Is(err, core.ErrNegativeTier),
		errors.Is(err, settings.ErrEmptyItem),
		errors.Is(err, settings.ErrUnknownKind),
		errors.Is(err, auth.ErrEmptyField):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a JSON request body into v, rejecting unknown fields and
// oversized payloads.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
