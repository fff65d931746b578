package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"finplan/internal/auth"
	"finplan/internal/services"
	"finplan/internal/storage"
)

func newTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()
	store := storage.NewMemoryRepository()
	authSvc := auth.NewService(store, time.Hour)
	forecastSvc := services.NewForecastService(store)
	reportSvc := services.NewReportService(nil)

	s := NewServer(":0", store, authSvc, forecastSvc, reportSvc, time.Hour)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, store
}

// do runs a request through the full middleware stack.
func do(s *Server, method, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "203.0.113.10:4711"
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

// registerAndLogin creates an account and returns its session cookie.
func registerAndLogin(t *testing.T, s *Server, email string) *http.Cookie {
	t.Helper()

	rec := do(s, http.MethodPost, "/register", url.Values{
		"email":    {email},
		"password": {"hunter2hunter2"},
		"name":     {"Tester"},
	}, nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("register: status %d, location %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = do(s, http.MethodPost, "/login", url.Values{
		"email":    {email},
		"password": {"hunter2hunter2"},
	}, nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("login: status %d, location %q", rec.Code, rec.Header().Get("Location"))
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := do(s, http.MethodGet, "/healthz", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d", rec.Code)
	}
	if rec := do(s, http.MethodGet, "/readyz", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("/readyz status = %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, http.MethodGet, "/", nil, nil)
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestDashboardRequiresLogin(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, http.MethodGet, "/dashboard", nil, nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("anonymous dashboard: status %d, location %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRegisterLoginDashboard(t *testing.T) {
	s, _ := newTestServer(t)
	session := registerAndLogin(t, s, "flow@example.com")

	rec := do(s, http.MethodGet, "/dashboard", nil, []*http.Cookie{session})
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Tester's Dashboard") {
		t.Error("dashboard does not greet the user")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s, _ := newTestServer(t)
	registerAndLogin(t, s, "dup@example.com")

	rec := do(s, http.MethodPost, "/register", url.Values{
		"email":    {"dup@example.com"},
		"password": {"hunter2hunter2"},
		"name":     {"Other"},
	}, nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/register" {
		t.Errorf("duplicate register: status %d, location %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestExpenseLifecycle(t *testing.T) {
	s, store := newTestServer(t)
	session := registerAndLogin(t, s, "exp@example.com")

	rec := do(s, http.MethodPost, "/expenses/add", url.Values{
		"title":     {"rent"},
		"category":  {"Housing"},
		"amount":    {"950.50"},
		"frequency": {"monthly"},
	}, []*http.Cookie{session})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("add expense status = %d", rec.Code)
	}

	user, err := store.UserByEmail(context.Background(), "exp@example.com")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	expenses, err := store.ListExpenses(context.Background(), user.ID)
	if err != nil || len(expenses) != 1 {
		t.Fatalf("ListExpenses = %v, %v", expenses, err)
	}
	if expenses[0].Amount.Cents != 95050 {
		t.Errorf("stored amount = %d cents, want 95050", expenses[0].Amount.Cents)
	}

	rec = do(s, http.MethodGet, "/dashboard", nil, []*http.Cookie{session})
	if !strings.Contains(rec.Body.String(), "rent") {
		t.Error("dashboard does not list the expense")
	}

	rec = do(s, http.MethodPost, fmt.Sprintf("/expenses/delete/%d", expenses[0].ID), nil, []*http.Cookie{session})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete expense status = %d", rec.Code)
	}
	expenses, _ = store.ListExpenses(context.Background(), user.ID)
	if len(expenses) != 0 {
		t.Error("expense not deleted")
	}
}

func TestGoalValidation(t *testing.T) {
	s, store := newTestServer(t)
	session := registerAndLogin(t, s, "goal@example.com")

	// Zero target is rejected before reaching storage.
	do(s, http.MethodPost, "/goal/add", url.Values{
		"goal_title":  {"nothing"},
		"goal_amount": {"0"},
	}, []*http.Cookie{session})

	user, _ := store.UserByEmail(context.Background(), "goal@example.com")
	goals, _ := store.ListGoals(context.Background(), user.ID)
	if len(goals) != 0 {
		t.Fatalf("invalid goal was stored: %+v", goals)
	}

	do(s, http.MethodPost, "/goal/add", url.Values{
		"goal_title":    {"bike"},
		"goal_amount":   {"450"},
		"goal_priority": {"2"},
	}, []*http.Cookie{session})

	goals, _ = store.ListGoals(context.Background(), user.ID)
	if len(goals) != 1 || goals[0].Priority != 2 || goals[0].Target.Cents != 45000 {
		t.Fatalf("stored goal = %+v", goals)
	}
}

func TestProfileUpdateRefreshesForecast(t *testing.T) {
	s, _ := newTestServer(t)
	session := registerAndLogin(t, s, "prof@example.com")

	// Warm the forecast cache.
	do(s, http.MethodGet, "/dashboard", nil, []*http.Cookie{session})

	do(s, http.MethodPost, "/profile/update", url.Values{
		"occupation":      {"teacher"},
		"monthly_income":  {"2500"},
		"current_savings": {"800"},
	}, []*http.Cookie{session})

	rec := do(s, http.MethodGet, "/dashboard", nil, []*http.Cookie{session})
	if !strings.Contains(rec.Body.String(), "2500.00") {
		t.Error("dashboard does not show updated income; stale cache?")
	}
}

func TestExportCSV(t *testing.T) {
	s, _ := newTestServer(t)
	session := registerAndLogin(t, s, "csv@example.com")

	do(s, http.MethodPost, "/expenses/add", url.Values{
		"title":     {"groceries"},
		"amount":    {"120"},
		"frequency": {"monthly"},
	}, []*http.Cookie{session})

	rec := do(s, http.MethodGet, "/export/csv", nil, []*http.Cookie{session})
	if rec.Code != http.StatusOK {
		t.Fatalf("export csv status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "groceries") {
		t.Error("CSV missing expense row")
	}
}

func TestExportAsyncDisabled(t *testing.T) {
	s, _ := newTestServer(t)
	session := registerAndLogin(t, s, "async@example.com")

	rec := do(s, http.MethodPost, "/export/async", url.Values{"format": {"csv"}}, []*http.Cookie{session})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("async export status = %d", rec.Code)
	}
	// Broker not configured: user lands back on the dashboard with a
	// warning flash rather than an error page.
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q", loc)
	}
}

func TestAdminAccess(t *testing.T) {
	s, store := newTestServer(t)
	session := registerAndLogin(t, s, "user@example.com")

	rec := do(s, http.MethodGet, "/admin/panel", nil, []*http.Cookie{session})
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin panel access status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	// Promote and retry.
	user, _ := store.UserByEmail(context.Background(), "user@example.com")
	if err := store.(*storage.MemoryRepository).SetAdmin(user.ID, true); err != nil {
		t.Fatalf("SetAdmin: %v", err)
	}

	rec = do(s, http.MethodGet, "/admin/panel", nil, []*http.Cookie{session})
	if rec.Code != http.StatusOK {
		t.Errorf("admin panel status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "user@example.com") {
		t.Error("admin panel does not list users")
	}
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	s, store := newTestServer(t)
	session := registerAndLogin(t, s, "root@example.com")

	user, _ := store.UserByEmail(context.Background(), "root@example.com")
	if err := store.(*storage.MemoryRepository).SetAdmin(user.ID, true); err != nil {
		t.Fatalf("SetAdmin: %v", err)
	}

	rec := do(s, http.MethodPost, fmt.Sprintf("/admin/delete_user/%d", user.ID), nil, []*http.Cookie{session})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete self status = %d", rec.Code)
	}
	if _, err := store.UserByID(context.Background(), user.ID); err != nil {
		t.Error("admin deleted their own account")
	}
}

func TestLoanCalculator(t *testing.T) {
	s, _ := newTestServer(t)
	session := registerAndLogin(t, s, "loan@example.com")

	rec := do(s, http.MethodPost, "/dashboard", url.Values{
		"loan_submit": {"1"},
		"principal":   {"100000"},
		"annual_rate": {"7.5"},
		"years":       {"20"},
	}, []*http.Cookie{session})
	if rec.Code != http.StatusOK {
		t.Fatalf("loan submit status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "EMI") {
		t.Error("loan result not rendered")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < requestsPerMinute; i++ {
		if !rl.allow("198.51.100.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("198.51.100.1") {
		t.Error("request over the limit should be rejected")
	}
	if !rl.allow("198.51.100.2") {
		t.Error("other clients are unaffected")
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"direct", "203.0.113.7:1234", "", "203.0.113.7"},
		{"untrusted proxy ignores xff", "203.0.113.7:1234", "198.51.100.9", "203.0.113.7"},
		{"trusted proxy honors xff", "10.0.0.5:1234", "198.51.100.9", "198.51.100.9"},
		{"trusted proxy first hop wins", "127.0.0.1:1234", "198.51.100.9, 10.0.0.5", "198.51.100.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
