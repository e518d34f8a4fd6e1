package http

import (
	"log/slog"
	"net/http"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := sanitizeInput(req.Username)
	if err := s.auth.Register(r.Context(), username, req.Password); err != nil {
		writeDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "User registered", "username", username)
	writeJSON(w, http.StatusCreated, map[string]string{"username": username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := sanitizeInput(req.Username)
	if err := s.auth.Login(r.Context(), username, req.Password); err != nil {
		// Do not leak which part was wrong.
		slog.WarnContext(r.Context(), "Login failed", "username", username)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"username": username})
}
