package http

import (
	"log/slog"
	"net/http"
)

// maxImportBytes caps uploaded CSV files.
const maxImportBytes = 16 << 20

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.csv"`)

	if err := s.ledger.ExportCSV(r.Context(), w); err != nil {
		// Headers are already out at this point, so just log.
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

// handleImportCSV ingests a legacy CSV file. mode=replace swaps the whole
// table, anything else appends. Rows the migration rules cannot fix are
// reported back, not silently dropped.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	replace := r.URL.Query().Get("mode") == "replace"

	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	result, err := s.ledger.ImportCSV(r.Context(), body, replace)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	skipped := make([]map[string]any, 0, len(result.Skipped))
	for _, re := range result.Skipped {
		skipped = append(skipped, map[string]any{
			"row":   re.Index,
			"error": re.Err.Error(),
		})
	}

	slog.InfoContext(r.Context(), "CSV import finished",
		"imported", result.Imported, "skipped", len(result.Skipped), "replace", replace)

	writeJSON(w, http.StatusOK, map[string]any{
		"imported": result.Imported,
		"replaced": result.Replaced,
		"skipped":  skipped,
	})
}
