// Package http provides the web server: routing, middleware,
// server-side rendered pages and the export endpoints.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finplan/internal/auth"
	"finplan/internal/cache"
	applog "finplan/internal/log"
	"finplan/internal/services"
	"finplan/internal/storage"
	appweb "finplan/web"
)

type Server struct {
	http.Server
	templates *template.Template

	store    storage.Store
	auth     *auth.Service
	forecast *services.ForecastService
	reports  *services.ReportService

	sessionTTL  time.Duration
	rateLimiter *rateLimiter

	// Per-user forecast cache; invalidated on every data mutation.
	forecastCache *cache.LRU[services.Forecast]
	cacheCancel   context.CancelFunc

	shutdownOnce sync.Once
}

// NewServer wires routes, templates and middleware into a
// ready-to-run server.
func NewServer(addr string, store storage.Store, authSvc *auth.Service, forecast *services.ForecastService, reports *services.ReportService, sessionTTL time.Duration) *Server {
	mux := http.NewServeMux()

	cacheCtx, cacheCancel := context.WithCancel(context.Background())
	s := &Server{
		store:         store,
		auth:          authSvc,
		forecast:      forecast,
		reports:       reports,
		sessionTTL:    sessionTTL,
		rateLimiter:   newRateLimiter(),
		forecastCache: cache.NewLRU[services.Forecast](200, 5*time.Minute),
		cacheCancel:   cacheCancel,
	}
	s.forecastCache.StartJanitor(cacheCtx, 10*time.Minute)

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /about", s.handleAbout)
	mux.HandleFunc("GET /register", s.handleRegisterForm)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)

	requireUser := func(h http.HandlerFunc) http.Handler { return auth.RequireUser(h) }
	mux.Handle("GET /dashboard", requireUser(s.handleDashboard))
	mux.Handle("POST /dashboard", requireUser(s.handleDashboard)) // loan calculator submit
	mux.Handle("POST /dashboard/clear", requireUser(s.handleClearDashboard))
	mux.Handle("POST /profile/update", requireUser(s.handleUpdateProfile))

	mux.Handle("POST /expenses/add", requireUser(s.handleAddExpense))
	mux.Handle("POST /expenses/delete/{id}", requireUser(s.handleDeleteExpense))
	mux.Handle("POST /goal/add", requireUser(s.handleAddGoal))
	mux.Handle("POST /goal/delete/{id}", requireUser(s.handleDeleteGoal))

	mux.Handle("GET /export/csv", requireUser(s.handleExportCSV))
	mux.Handle("GET /export/pdf", requireUser(s.handleExportPDF))
	mux.Handle("POST /export/async", requireUser(s.handleExportAsync))

	requireAdmin := func(h http.HandlerFunc) http.Handler { return auth.RequireAdmin(h) }
	mux.Handle("GET /admin/panel", requireAdmin(s.handleAdminPanel))
	mux.Handle("POST /admin/delete_user/{id}", requireAdmin(s.handleAdminDeleteUser))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.withMiddleware(authSvc.Authenticate(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops background goroutines along with the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheCancel()
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withMiddleware adds security headers, request IDs, per-IP rate
// limiting on mutations, and request logging.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	})
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Readiness depends on the database answering.
	if _, err := s.store.ListUsers(r.Context()); err != nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
