package storage

import (
	"context"
	"sync"
	"time"

	"finplan/internal/core"
)

// MemoryRepository is an in-memory Store used by handler and service
// tests. It mirrors SQLiteRepository's semantics, including ownership
// checks and ErrNotFound/ErrEmailTaken behavior.
type MemoryRepository struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]User
	expenses map[int64][]core.Expense // keyed by user ID
	goals    map[int64][]core.Goal
	sessions map[string]session
}

type session struct {
	userID    int64
	expiresAt time.Time
}

var _ Store = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:   1,
		users:    make(map[int64]User),
		expenses: make(map[int64][]core.Expense),
		goals:    make(map[int64][]core.Goal),
		sessions: make(map[string]session),
	}
}

func (m *MemoryRepository) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *MemoryRepository) CreateUser(_ context.Context, email, passwordHash, name string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return User{}, ErrEmailTaken
		}
	}
	u := User{
		ID:           m.id(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *MemoryRepository) UserByEmail(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *MemoryRepository) UserByID(_ context.Context, id int64) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryRepository) UpdateProfile(_ context.Context, userID int64, occupation string, incomeCents, savingsCents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Occupation = occupation
	u.MonthlyIncome = core.Money{Cents: incomeCents}
	u.CurrentSavings = core.Money{Cents: savingsCents}
	m.users[userID] = u
	return nil
}

// SetAdmin toggles the admin flag. Production promotes admins
// directly in the database; this exists for tests.
func (m *MemoryRepository) SetAdmin(userID int64, isAdmin bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.IsAdmin = isAdmin
	m.users[userID] = u
	return nil
}

func (m *MemoryRepository) ListUsers(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]User, 0, len(m.users))
	for id := int64(0); id < m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (m *MemoryRepository) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	delete(m.expenses, id)
	delete(m.goals, id)
	for token, s := range m.sessions {
		if s.userID == id {
			delete(m.sessions, token)
		}
	}
	return nil
}

func (m *MemoryRepository) CreateExpense(_ context.Context, userID int64, e core.Expense) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.id()
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	m.expenses[userID] = append(m.expenses[userID], e)
	return e.ID, nil
}

func (m *MemoryRepository) ListExpenses(_ context.Context, userID int64) ([]core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Expense, len(m.expenses[userID]))
	copy(out, m.expenses[userID])
	return out, nil
}

func (m *MemoryRepository) DeleteExpense(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.expenses[userID]
	for i, e := range items {
		if e.ID == id {
			m.expenses[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryRepository) CreateGoal(_ context.Context, userID int64, g core.Goal) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.ID = m.id()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	m.goals[userID] = append(m.goals[userID], g)
	return g.ID, nil
}

func (m *MemoryRepository) ListGoals(_ context.Context, userID int64) ([]core.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Goal, len(m.goals[userID]))
	copy(out, m.goals[userID])
	return out, nil
}

func (m *MemoryRepository) DeleteGoal(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.goals[userID]
	for i, g := range items {
		if g.ID == id {
			m.goals[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryRepository) ClearUserData(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expenses, userID)
	delete(m.goals, userID)
	return nil
}

func (m *MemoryRepository) CreateSession(_ context.Context, token string, userID int64, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = session{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *MemoryRepository) SessionUser(_ context.Context, token string, now time.Time) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok || !s.expiresAt.After(now) {
		return User{}, ErrNotFound
	}
	u, ok := m.users[s.userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryRepository) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *MemoryRepository) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, s := range m.sessions {
		if !s.expiresAt.After(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) Close() error { return nil }
