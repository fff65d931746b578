package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"finplan/internal/amqp"
	"finplan/internal/auth"
	"finplan/internal/export"
	"finplan/internal/services"
)

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	fc, err := s.forecastFor(r, user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Forecast build failed", "user_id", user.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="dashboard.csv"`)
	if err := export.WriteCSV(w, fc); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "user_id", user.ID, "error", err)
	}
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	fc, err := s.forecastFor(r, user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Forecast build failed", "user_id", user.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="dashboard.pdf"`)
	if err := export.WritePDF(w, fc); err != nil {
		slog.ErrorContext(r.Context(), "PDF export failed", "user_id", user.ID, "error", err)
	}
}

// handleExportAsync queues a report job for the background worker.
func (s *Server) handleExportAsync(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	format := sanitizeInput(r.FormValue("format"))
	if format != amqp.FormatCSV && format != amqp.FormatPDF {
		redirectWithFlash(w, r, "/dashboard", "warning", "Unknown report format.")
		return
	}

	jobID, err := s.reports.RequestExport(r.Context(), user.ID, format)
	if err != nil {
		if errors.Is(err, services.ErrExportsDisabled) {
			redirectWithFlash(w, r, "/dashboard", "warning", "Background exports are not enabled.")
			return
		}
		slog.ErrorContext(r.Context(), "Report request failed", "user_id", user.ID, "error", err)
		redirectWithFlash(w, r, "/dashboard", "danger", "Error requesting report.")
		return
	}

	redirectWithFlash(w, r, "/dashboard", "success",
		fmt.Sprintf("Report queued (job %s). It will appear in the reports folder shortly.", jobID))
}
