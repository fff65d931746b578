package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finplan/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements Store over a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ---- Users ----

func (r *SQLiteRepository) CreateUser(ctx context.Context, email, passwordHash, name string) (User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)`,
		email, passwordHash, name)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("user insert id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", id)
	return r.UserByID(ctx, id)
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		userColumns+` WHERE email = ?`, email))
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id int64) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		userColumns+` WHERE id = ?`, id))
}

const userColumns = `SELECT id, email, password_hash, name, occupation,
	monthly_income_cents, current_savings_cents, is_admin, created_at FROM users`

func (r *SQLiteRepository) scanUser(row *sql.Row) (User, error) {
	var (
		u         User
		isAdmin   int64
		createdAt int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Occupation,
		&u.MonthlyIncome.Cents, &u.CurrentSavings.Cents, &isAdmin, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	u.IsAdmin = isAdmin != 0
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return u, nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, userID int64, occupation string, incomeCents, savingsCents int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET occupation = ?, monthly_income_cents = ?, current_savings_cents = ? WHERE id = ?`,
		occupation, incomeCents, savingsCents, userID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRows(res)
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, userColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var (
			u         User
			isAdmin   int64
			createdAt int64
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Occupation,
			&u.MonthlyIncome.Cents, &u.CurrentSavings.Cents, &isAdmin, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.IsAdmin = isAdmin != 0
		u.CreatedAt = time.Unix(createdAt, 0).UTC()
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := requireRows(res); err != nil {
		return err
	}
	slog.InfoContext(ctx, "User deleted", "user_id", id)
	return nil
}

// ---- Expenses ----

func (r *SQLiteRepository) CreateExpense(ctx context.Context, userID int64, e core.Expense) (int64, error) {
	recorded := e.RecordedAt
	if recorded.IsZero() {
		recorded = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, title, category, amount_cents, frequency, description, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, e.Title, e.Category, e.Amount.Cents, string(e.Frequency), e.Description, recorded.Unix())
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"expense_id", id,
		"user_id", userID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return id, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, category, amount_cents, frequency, description, recorded_at
		 FROM expenses WHERE user_id = ? ORDER BY recorded_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e        core.Expense
			freq     string
			recorded int64
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Category, &e.Amount.Cents, &freq, &e.Description, &recorded); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Frequency = core.Frequency(freq)
		e.RecordedAt = time.Unix(recorded, 0).UTC()
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRows(res)
}

// ---- Goals ----

func (r *SQLiteRepository) CreateGoal(ctx context.Context, userID int64, g core.Goal) (int64, error) {
	created := g.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, title, target_cents, priority, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, g.Title, g.Target.Cents, g.Priority, created.Unix())
	if err != nil {
		return 0, fmt.Errorf("insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("goal insert id: %w", err)
	}

	slog.InfoContext(ctx, "Goal saved",
		"goal_id", id,
		"user_id", userID,
		"target_cents", g.Target.Cents,
		"priority", g.Priority)
	return id, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	// Insertion order: the predictor applies its own (priority,
	// created_at, stable) ordering over this snapshot.
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, target_cents, priority, created_at
		 FROM goals WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		var (
			g       core.Goal
			created int64
		)
		if err := rows.Scan(&g.ID, &g.Title, &g.Target.Cents, &g.Priority, &created); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.CreatedAt = time.Unix(created, 0).UTC()
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRows(res)
}

func (r *SQLiteRepository) ClearUserData(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear goals: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear transaction: %w", err)
	}

	slog.InfoContext(ctx, "User data cleared", "user_id", userID)
	return nil
}

// ---- Sessions ----

func (r *SQLiteRepository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt.Unix())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SessionUser(ctx context.Context, token string, now time.Time) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT u.id, u.email, u.password_hash, u.name, u.occupation,
		        u.monthly_income_cents, u.current_savings_cents, u.is_admin, u.created_at
		 FROM sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.token = ? AND s.expires_at > ?`, token, now.Unix()))
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired sessions rows affected: %w", err)
	}
	return n, nil
}

func requireRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
