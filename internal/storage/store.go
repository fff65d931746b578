// Package storage persists finplan's users, expenses, goals and
// sessions. The core never touches this package; it receives in-memory
// snapshots loaded from here.
package storage

import (
	"context"
	"errors"
	"time"

	"finplan/internal/core"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrEmailTaken = errors.New("email already registered")
)

// User is an account row. Money fields are stored as cents.
type User struct {
	ID             int64
	Email          string
	PasswordHash   string
	Name           string
	Occupation     string
	MonthlyIncome  core.Money
	CurrentSavings core.Money
	IsAdmin        bool
	CreatedAt      time.Time
}

// Store is the persistence boundary shared by the web layer, services
// and the report worker. SQLiteRepository is the production
// implementation; MemoryRepository backs tests.
type Store interface {
	// Users
	CreateUser(ctx context.Context, email, passwordHash, name string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id int64) (User, error)
	UpdateProfile(ctx context.Context, userID int64, occupation string, incomeCents, savingsCents int64) error
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id int64) error

	// Expenses
	CreateExpense(ctx context.Context, userID int64, e core.Expense) (int64, error)
	ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error)
	DeleteExpense(ctx context.Context, userID, id int64) error

	// Goals
	CreateGoal(ctx context.Context, userID int64, g core.Goal) (int64, error)
	ListGoals(ctx context.Context, userID int64) ([]core.Goal, error)
	DeleteGoal(ctx context.Context, userID, id int64) error

	// ClearUserData removes all of a user's expenses and goals in one
	// transaction.
	ClearUserData(ctx context.Context, userID int64) error

	// Sessions
	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	SessionUser(ctx context.Context, token string, now time.Time) (User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	Close() error
}
