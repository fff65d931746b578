package http

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finplan/internal/auth"
	"finplan/internal/services"
	"finplan/internal/storage"
)

const flashCookie = "finplan_flash"

// Flash is a one-shot notification surfaced on the next rendered page.
type Flash struct {
	Level   string // success, info, warning, danger
	Message string
}

func setFlash(w http.ResponseWriter, level, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(level + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the pending flash, if any.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})

	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	level, message, ok := strings.Cut(raw, "|")
	if !ok {
		return nil
	}
	return &Flash{Level: level, Message: message}
}

// pageData is the payload every template receives.
type pageData struct {
	Title string
	User  *storage.User
	Flash *Flash
	Data  any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	pd := pageData{Title: title, Flash: popFlash(w, r), Data: data}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		pd.User = &user
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, pd); err != nil {
		slog.ErrorContext(r.Context(), "Template render failed", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, target, level, message string) {
	setFlash(w, level, message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func parseFloatField(r *http.Request, field string) (float64, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
}

// forecastFor returns the user's forecast, serving from the per-user
// cache when fresh.
func (s *Server) forecastFor(r *http.Request, userID int64) (services.Forecast, error) {
	key := forecastCacheKey(userID)
	if fc, ok := s.forecastCache.Get(key); ok {
		return fc, nil
	}

	fc, err := s.forecast.Build(r.Context(), userID, time.Now())
	if err != nil {
		return services.Forecast{}, err
	}
	s.forecastCache.Set(key, fc)
	return fc, nil
}

// invalidateForecast drops the cached forecast after a data mutation.
func (s *Server) invalidateForecast(userID int64) {
	s.forecastCache.Delete(forecastCacheKey(userID))
}

func forecastCacheKey(userID int64) string {
	return fmt.Sprintf("forecast:%d", userID)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(v float64) string {
			return fmt.Sprintf("%.2f", v)
		},
		"date": func(t time.Time) string {
			return t.Format("02-01-2006")
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.2f%%", v)
		},
	}
}
