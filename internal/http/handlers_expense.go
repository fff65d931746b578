package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"finplan/internal/auth"
	"finplan/internal/core"
	"finplan/internal/storage"
)

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	title := sanitizeInput(r.FormValue("title"))
	category := sanitizeInput(r.FormValue("category"))
	if category == "" {
		category = core.DefaultCategory
	}
	description := sanitizeInput(r.FormValue("description"))
	frequency := core.Frequency(sanitizeInput(r.FormValue("frequency"))).Normalized()

	amountCents, err := parseMoneyField(r, "amount")
	if err != nil {
		redirectWithFlash(w, r, "/dashboard", "danger", "Error adding expense")
		return
	}

	expense := core.Expense{
		Title:       title,
		Category:    category,
		Amount:      core.Money{Cents: amountCents},
		Frequency:   frequency,
		Description: description,
		RecordedAt:  time.Now(),
	}
	if err := expense.Validate(); err != nil {
		redirectWithFlash(w, r, "/dashboard", "warning", "Please enter a valid expense.")
		return
	}

	if _, err := s.store.CreateExpense(r.Context(), user.ID, expense); err != nil {
		slog.ErrorContext(r.Context(), "Expense create failed", "user_id", user.ID, "error", err)
		redirectWithFlash(w, r, "/dashboard", "danger", "Error adding expense")
		return
	}

	s.invalidateForecast(user.ID)
	redirectWithFlash(w, r, "/dashboard", "success", "Expense added")
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if err := s.store.DeleteExpense(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			redirectWithFlash(w, r, "/dashboard", "danger", "Expense not found")
			return
		}
		slog.ErrorContext(r.Context(), "Expense delete failed", "user_id", user.ID, "expense_id", id, "error", err)
		redirectWithFlash(w, r, "/dashboard", "danger", "Error deleting expense")
		return
	}

	s.invalidateForecast(user.ID)
	redirectWithFlash(w, r, "/dashboard", "warning", "Expense deleted!")
}
