package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"finplan/internal/auth"
	"finplan/internal/storage"
)

type adminView struct {
	Users []storage.User
}

func (s *Server) handleAdminPanel(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Admin user list failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "admin_panel.html", "Admin", adminView{Users: users})
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.UserFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if id == admin.ID {
		redirectWithFlash(w, r, "/admin/panel", "warning", "You cannot delete your own account.")
		return
	}

	target, err := s.store.UserByID(r.Context(), id)
	if err != nil {
		redirectWithFlash(w, r, "/admin/panel", "danger", "User not found.")
		return
	}

	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "User delete failed", "user_id", id, "error", err)
		redirectWithFlash(w, r, "/admin/panel", "danger", "Error deleting user.")
		return
	}

	s.invalidateForecast(id)
	redirectWithFlash(w, r, "/admin/panel", "success",
		fmt.Sprintf("User %s deleted successfully.", target.Email))
}
