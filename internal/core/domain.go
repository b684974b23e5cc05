package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	GoalTravel      GoalCategory = "travel"
	GoalCar         GoalCategory = "car"
	GoalHome        GoalCategory = "home"
	GoalEducation   GoalCategory = "education"
	GoalElectronics GoalCategory = "electronics"
	GoalHealth      GoalCategory = "health"
	GoalOther       GoalCategory = "other"
)

// DateLayout is the calendar day format used in forms, storage and backups.
const DateLayout = "2006-01-02"

const (
	maxTitleLen = 200
	maxNoteLen  = 500
)

type (
	TransactionType string

	GoalCategory string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID     int64
		Title  string // Doubles as the statistics category
		Amount Money
		Type   TransactionType
		Date   Date
	}

	Goal struct {
		ID        int64
		Title     string
		Target    Money
		Current   Money
		Deadline  Date // Zero when the goal has no deadline
		Category  GoalCategory
		CreatedAt time.Time
		Completed bool
	}

	QuickNote struct {
		ID        int64
		Text      string
		Completed bool
		CreatedAt time.Time
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidCategory = errors.New("invalid goal category")
	ErrEmptyTitle      = errors.New("empty title")
	ErrTitleTooLong    = errors.New("title too long (max 200 characters)")
	ErrEmptyNote       = errors.New("empty note")
	ErrNoteTooLong     = errors.New("note too long (max 500 characters)")
	ErrGoalCompleted   = errors.New("goal already completed")
	ErrNotFound        = errors.New("not found")
)

// IsValidation reports whether err comes from domain validation rather than
// from storage or transport.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidDate, ErrInvalidAmount, ErrInvalidType, ErrInvalidCategory,
		ErrEmptyTitle, ErrTitleTooLong, ErrEmptyNote, ErrNoteTooLong, ErrGoalCompleted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the calendar day of now, in now's location, as a UTC date.
func Today(now time.Time) Date {
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return nil
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

// ParseTransactionType accepts "income" or "expense", case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Validate()
}

func validateTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyTitle
	}
	if len([]rune(s)) > maxTitleLen {
		return ErrTitleTooLong
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return t.Type.Validate()
}

// ParseGoalCategory maps an empty value to GoalOther.
func ParseGoalCategory(s string) (GoalCategory, error) {
	c := GoalCategory(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return GoalOther, nil
	}
	return c, c.Validate()
}

func (c GoalCategory) Validate() error {
	switch c {
	case GoalTravel, GoalCar, GoalHome, GoalEducation, GoalElectronics, GoalHealth, GoalOther:
		return nil
	}
	return ErrInvalidCategory
}

// GoalCategories lists every category in display order.
func GoalCategories() []GoalCategory {
	return []GoalCategory{GoalTravel, GoalCar, GoalHome, GoalEducation, GoalElectronics, GoalHealth, GoalOther}
}

func (g Goal) Validate() error {
	if err := validateTitle(g.Title); err != nil {
		return err
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Current.Cents < 0 || g.Current.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return g.Category.Validate()
}

// Reached reports whether the saved amount covers the target.
func (g Goal) Reached() bool {
	return g.Current.Cents >= g.Target.Cents
}

func (n QuickNote) Validate() error {
	text := strings.TrimSpace(n.Text)
	if text == "" {
		return ErrEmptyNote
	}
	if len([]rune(text)) > maxNoteLen {
		return ErrNoteTooLong
	}
	return nil
}
