package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"finplan/internal/auth"
	"finplan/internal/core"
	"finplan/internal/storage"
)

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	title := sanitizeInput(r.FormValue("goal_title"))
	targetCents, err := parseMoneyField(r, "goal_amount")
	if err != nil || title == "" || targetCents <= 0 {
		redirectWithFlash(w, r, "/dashboard", "warning", "Please enter a valid goal and amount.")
		return
	}

	priority := core.DefaultPriority
	if v := sanitizeInput(r.FormValue("goal_priority")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			redirectWithFlash(w, r, "/dashboard", "warning", "Please enter a valid goal priority.")
			return
		}
		priority = p
	}

	goal := core.Goal{
		Title:     title,
		Target:    core.Money{Cents: targetCents},
		Priority:  priority,
		CreatedAt: time.Now(),
	}
	if err := goal.Validate(); err != nil {
		redirectWithFlash(w, r, "/dashboard", "warning", "Please enter a valid goal and amount.")
		return
	}

	if _, err := s.store.CreateGoal(r.Context(), user.ID, goal); err != nil {
		slog.ErrorContext(r.Context(), "Goal create failed", "user_id", user.ID, "error", err)
		redirectWithFlash(w, r, "/dashboard", "danger", "Error adding goal.")
		return
	}

	s.invalidateForecast(user.ID)
	redirectWithFlash(w, r, "/dashboard", "success", "Goal added successfully!")
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if err := s.store.DeleteGoal(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			redirectWithFlash(w, r, "/dashboard", "danger", "Goal not found.")
			return
		}
		slog.ErrorContext(r.Context(), "Goal delete failed", "user_id", user.ID, "goal_id", id, "error", err)
		redirectWithFlash(w, r, "/dashboard", "danger", "Error deleting goal.")
		return
	}

	s.invalidateForecast(user.ID)
	redirectWithFlash(w, r, "/dashboard", "warning", "Goal deleted!")
}
