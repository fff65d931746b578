package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"finplan/internal/core"
	"finplan/internal/storage"
)

func seedUser(t *testing.T, store storage.Store, incomeCents, savingsCents int64) storage.User {
	t.Helper()
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "fc@example.com", "hash", "FC")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := store.UpdateProfile(ctx, user.ID, "dev", incomeCents, savingsCents); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	user, err = store.UserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	return user
}

func TestForecastService_Build(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryRepository()
	user := seedUser(t, store, 300000, 50000) // 3000 income, 500 savings

	expenses := []core.Expense{
		{Title: "rent", Category: "Housing", Amount: core.Money{Cents: 100000}, Frequency: core.Monthly},
		{Title: "coffee", Category: "Food", Amount: core.Money{Cents: 300}, Frequency: core.Daily},
		{Title: "insurance", Category: "Other", Amount: core.Money{Cents: 60000}, Frequency: core.Yearly},
	}
	for _, e := range expenses {
		if _, err := store.CreateExpense(ctx, user.ID, e); err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}
	if _, err := store.CreateGoal(ctx, user.ID, core.Goal{Title: "bike", Target: core.Money{Cents: 100000}, Priority: 1}); err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	fc, err := NewForecastService(store).Build(ctx, user.ID, now)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// 1000 + 3*30 + 600/12 = 1140 monthly.
	wantMonthly := 1140.0
	if math.Abs(fc.MonthlyExpenses-wantMonthly) > 1e-9 {
		t.Errorf("MonthlyExpenses = %v, want %v", fc.MonthlyExpenses, wantMonthly)
	}
	if math.Abs(fc.MonthlySavingRate-1860.0) > 1e-9 {
		t.Errorf("MonthlySavingRate = %v, want 1860", fc.MonthlySavingRate)
	}
	if fc.OverBudget {
		t.Error("OverBudget = true for positive saving rate")
	}
	if got := fc.ByCategory["Housing"]; math.Abs(got-1000.0) > 1e-9 {
		t.Errorf("ByCategory[Housing] = %v, want 1000", got)
	}
	if len(fc.Predictions) != 1 {
		t.Fatalf("Predictions count = %d, want 1", len(fc.Predictions))
	}
	// Savings (500) do not cover the 1000 target, so a date is predicted.
	if fc.Predictions[0].Status != core.StatusPredicted {
		t.Errorf("prediction status = %q, want %q", fc.Predictions[0].Status, core.StatusPredicted)
	}
	if !fc.GeneratedAt.Equal(now) {
		t.Errorf("GeneratedAt = %v, want %v", fc.GeneratedAt, now)
	}
}

func TestForecastService_Build_OverBudget(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryRepository()
	user := seedUser(t, store, 100000, 0) // 1000 income

	if _, err := store.CreateExpense(ctx, user.ID, core.Expense{
		Title: "rent", Category: "Housing", Amount: core.Money{Cents: 150000}, Frequency: core.Monthly,
	}); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	fc, err := NewForecastService(store).Build(ctx, user.ID, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !fc.OverBudget {
		t.Error("OverBudget = false, want true when expenses exceed income")
	}
}

func TestForecastService_Build_UnknownUser(t *testing.T) {
	store := storage.NewMemoryRepository()
	if _, err := NewForecastService(store).Build(context.Background(), 99, time.Now()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Build for unknown user = %v, want ErrNotFound", err)
	}
}
