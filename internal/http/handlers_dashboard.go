package http

import (
	"log/slog"
	"net/http"

	"finplan/internal/auth"
	"finplan/internal/core"
	"finplan/internal/services"
)

// dashboardView carries everything the dashboard template renders.
type dashboardView struct {
	Forecast      services.Forecast
	Warning       string
	LoanResult    *core.LoanQuote
	LoanError     string
	ExportEnabled bool
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	view := dashboardView{ExportEnabled: s.reports.Enabled()}

	// The loan calculator posts back to the dashboard; it never touches
	// stored data.
	if r.Method == http.MethodPost && r.FormValue("loan_submit") != "" {
		principal, err1 := parseFloatField(r, "principal")
		annualRate, err2 := parseFloatField(r, "annual_rate")
		years, err3 := parseFloatField(r, "years")
		if err1 != nil || err2 != nil || err3 != nil {
			view.LoanError = "Invalid loan input."
		} else if quote, err := core.CalculateLoan(principal, annualRate, years); err != nil {
			view.LoanError = "Invalid loan input."
		} else {
			view.LoanResult = &quote
		}
	}

	fc, err := s.forecastFor(r, user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Forecast build failed", "user_id", user.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	view.Forecast = fc
	if fc.OverBudget {
		view.Warning = "Expenses exceed income!"
	}

	s.render(w, r, "dashboard.html", "Dashboard", view)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	occupation := sanitizeInput(r.FormValue("occupation"))

	incomeCents, err := parseMoneyField(r, "monthly_income")
	if err != nil {
		redirectWithFlash(w, r, "/dashboard", "danger", "Error updating profile")
		return
	}
	savingsCents, err := parseMoneyField(r, "current_savings")
	if err != nil {
		redirectWithFlash(w, r, "/dashboard", "danger", "Error updating profile")
		return
	}

	if err := s.store.UpdateProfile(r.Context(), user.ID, occupation, incomeCents, savingsCents); err != nil {
		slog.ErrorContext(r.Context(), "Profile update failed", "user_id", user.ID, "error", err)
		redirectWithFlash(w, r, "/dashboard", "danger", "Error updating profile")
		return
	}

	s.invalidateForecast(user.ID)
	redirectWithFlash(w, r, "/dashboard", "success", "Profile updated")
}

func (s *Server) handleClearDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := s.store.ClearUserData(r.Context(), user.ID); err != nil {
		slog.ErrorContext(r.Context(), "Dashboard clear failed", "user_id", user.ID, "error", err)
		redirectWithFlash(w, r, "/dashboard", "danger", "Error clearing dashboard data")
		return
	}

	s.invalidateForecast(user.ID)
	redirectWithFlash(w, r, "/dashboard", "info", "All your dashboard data cleared.")
}

// parseMoneyField parses a decimal money form value into cents. An
// empty value is zero.
func parseMoneyField(r *http.Request, field string) (int64, error) {
	v := sanitizeInput(r.FormValue(field))
	if v == "" {
		return 0, nil
	}
	return core.ParseDecimalToCents(v)
}
