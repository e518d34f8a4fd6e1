// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/llnuddill/account-book/internal/auth"
	applog "github.com/llnuddill/account-book/internal/log"
	"github.com/llnuddill/account-book/internal/services"
	"github.com/llnuddill/account-book/internal/storage"
)

type Server struct {
	http.Server
	ledger *services.LedgerService
	auth   *auth.Service
	// repo is nil unless the sqlite backend is active. Recurring template
	// endpoints answer 503 without it.
	repo *storage.SQLiteRepository

	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	logs         *applog.StructuredLogger
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, authSvc *auth.Service, repo *storage.SQLiteRepository) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:      ledger,
		auth:        authSvc,
		repo:        repo,
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
		logs: applog.NewStructuredLogger(applog.New(applog.Config{
			Component: applog.ComponentHTTP,
			Handler:   slog.Default().Handler(),
		})),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/transactions", s.withSecurityHeaders(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{row}", s.withSecurityHeaders(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{row}", s.withSecurityHeaders(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/reports/month", s.withSecurityHeaders(s.handleMonthReport))
	mux.HandleFunc("GET /api/reports/year", s.withSecurityHeaders(s.handleYearReport))
	mux.HandleFunc("GET /api/reports/cards", s.withSecurityHeaders(s.handleCardReports))

	mux.HandleFunc("GET /api/settings", s.withSecurityHeaders(s.handleGetSettings))
	mux.HandleFunc("POST /api/settings/categories", s.withSecurityHeaders(s.handleAddCategory))
	mux.HandleFunc("DELETE /api/settings/categories", s.withSecurityHeaders(s.handleRemoveCategory))
	mux.HandleFunc("POST /api/settings/payment-methods", s.withSecurityHeaders(s.handleAddPaymentMethod))
	mux.HandleFunc("DELETE /api/settings/payment-methods", s.withSecurityHeaders(s.handleRemovePaymentMethod))
	mux.HandleFunc("POST /api/settings/years", s.withSecurityHeaders(s.handleAddYear))
	mux.HandleFunc("DELETE /api/settings/years", s.withSecurityHeaders(s.handleRemoveYear))
	mux.HandleFunc("POST /api/settings/cards", s.withSecurityHeaders(s.handleRegisterCard))
	mux.HandleFunc("DELETE /api/settings/cards/{name}", s.withSecurityHeaders(s.handleDeleteCard))

	mux.HandleFunc("GET /api/export", s.withSecurityHeaders(s.handleExportCSV))
	mux.HandleFunc("POST /api/import", s.withSecurityHeaders(s.handleImportCSV))

	mux.HandleFunc("POST /api/auth/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.withSecurityHeaders(s.handleLogin))

	mux.HandleFunc("GET /api/templates", s.withSecurityHeaders(s.handleListTemplates))
	mux.HandleFunc("POST /api/templates", s.withSecurityHeaders(s.handleCreateTemplate))
	mux.HandleFunc("PATCH /api/templates/{id}", s.withSecurityHeaders(s.handleSetTemplateActive))
	mux.HandleFunc("DELETE /api/templates/{id}", s.withSecurityHeaders(s.handleDeleteTemplate))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		s.logs.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request pattern",
				"request_id", requestID, "client_ip", clientIP, "url", r.URL.Path)
		}

		// Rate-limit mutating requests only; reads are cheap and cached.
		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logs.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	}
}

type requestIDKey struct{}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// parseYearMonth extracts year and month from query parameters, defaulting to
// the current date.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	return year, month
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
