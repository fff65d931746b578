// Package services orchestrates storage, the computation core and the
// message broker behind the HTTP handlers and the report worker.
package services

import (
	"context"
	"fmt"
	"time"

	"finplan/internal/core"
	"finplan/internal/storage"
)

// Forecast is the full financial picture for one user: monthly
// normalization of their expenses plus the affordability prediction
// for every goal. The dashboard, the CSV/PDF exports and the sheet
// sink all render from this one snapshot.
type Forecast struct {
	User              storage.User
	GeneratedAt       time.Time
	MonthlyIncome     float64
	MonthlyExpenses   float64
	ByCategory        map[string]float64
	MonthlySavingRate float64
	CurrentSavings    float64
	OverBudget        bool
	Expenses          []core.Expense
	Predictions       []core.PredictionRecord
}

type ForecastService struct {
	store storage.Store
}

func NewForecastService(store storage.Store) *ForecastService {
	return &ForecastService{store: store}
}

// Build assembles a forecast from the user's current data. now fixes
// the prediction start so repeated renders within a request agree.
func (s *ForecastService) Build(ctx context.Context, userID int64, now time.Time) (Forecast, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return Forecast{}, fmt.Errorf("load user: %w", err)
	}

	expenses, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return Forecast{}, fmt.Errorf("load expenses: %w", err)
	}

	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return Forecast{}, fmt.Errorf("load goals: %w", err)
	}

	monthlyTotal, byCategory := core.NormalizeExpenses(expenses)
	income := user.MonthlyIncome.Amount()
	savings := user.CurrentSavings.Amount()
	rate := core.MonthlySavingRate(income, monthlyTotal)

	return Forecast{
		User:              user,
		GeneratedAt:       now,
		MonthlyIncome:     income,
		MonthlyExpenses:   monthlyTotal,
		ByCategory:        byCategory,
		MonthlySavingRate: rate,
		CurrentSavings:    savings,
		OverBudget:        rate < 0,
		Expenses:          expenses,
		Predictions:       core.PredictGoals(now, rate, savings, goals),
	}, nil
}
