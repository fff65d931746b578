package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily   Frequency = "daily"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// DefaultCategory is the label assigned to expenses recorded without one.
const DefaultCategory = "Other"

// DefaultPriority is assigned to goals created without an explicit rank.
// Lower values are served first when allocating savings.
const DefaultPriority = 5

type (
	// Frequency describes how often an expense recurs.
	Frequency string

	Money struct {
		Cents int64
	}

	// Expense is a recorded spending item. The core only reads expenses;
	// their lifecycle belongs to the storage layer.
	Expense struct {
		ID          int64
		Title       string
		Category    string
		Amount      Money
		Frequency   Frequency
		Description string
		RecordedAt  time.Time
	}

	// Goal is a savings target. Target may be non-positive for goals
	// entered in an invalid state; the predictor maps that to
	// StatusInvalidTarget rather than failing.
	Goal struct {
		ID        int64
		Title     string
		Target    Money
		Priority  int
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyTitle       = errors.New("empty title")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidPriority  = errors.New("invalid priority")
)

// Normalized maps unknown frequency values to Monthly so that a bad
// row degrades to the identity conversion instead of poisoning totals.
func (f Frequency) Normalized() Frequency {
	switch f {
	case Daily, Monthly, Yearly:
		return f
	default:
		return Monthly
	}
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if e.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if !e.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if len(e.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(g.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Priority < 0 {
		return ErrInvalidPriority
	}
	return nil
}
