package http

import (
	"errors"
	"log/slog"
	"net/http"

	"finplan/internal/auth"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "home.html", "Welcome", nil)
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "about.html", "About", nil)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "register.html", "Register", nil)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	email := sanitizeInput(r.FormValue("email"))
	name := sanitizeInput(r.FormValue("name"))
	password := r.FormValue("password")

	_, err := s.auth.Register(r.Context(), email, password, name)
	switch {
	case err == nil:
		redirectWithFlash(w, r, "/login", "success", "Registered! Login now.")
	case errors.Is(err, auth.ErrEmailTaken):
		redirectWithFlash(w, r, "/register", "danger", "Email already registered")
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrLongPassword),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrNameRequired):
		redirectWithFlash(w, r, "/register", "warning", err.Error())
	default:
		slog.ErrorContext(r.Context(), "Registration failed", "error", err)
		redirectWithFlash(w, r, "/register", "danger", "Registration failed, try again")
	}
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login.html", "Login", nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	email := sanitizeInput(r.FormValue("email"))
	password := r.FormValue("password")

	_, token, err := s.auth.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			redirectWithFlash(w, r, "/login", "danger", "Invalid credentials")
			return
		}
		slog.ErrorContext(r.Context(), "Login failed", "error", err)
		redirectWithFlash(w, r, "/login", "danger", "Login failed, try again")
		return
	}

	auth.SetSessionCookie(w, token, s.sessionTTL)
	redirectWithFlash(w, r, "/dashboard", "success", "Logged in")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), auth.TokenFromRequest(r)); err != nil {
		slog.WarnContext(r.Context(), "Logout failed", "error", err)
	}
	auth.ClearSessionCookie(w)
	redirectWithFlash(w, r, "/", "info", "Logged out")
}
