package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-11-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(NewDate(2025, 11, 29).Time) {
		t.Fatalf("got %v", d)
	}
	if d.String() != "2025-11-29" {
		t.Fatalf("String() = %q", d.String())
	}
	if _, err := ParseDate("29.11.2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Title:  "Food",
		Amount: Money{Cents: 30000},
		Type:   Expense,
		Date:   NewDate(2025, 11, 29),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"zero date", Transaction{Title: "a", Amount: Money{Cents: 1}, Type: Income}, ErrInvalidDate},
		{"blank title", Transaction{Title: "  ", Amount: Money{Cents: 1}, Type: Income, Date: NewDate(2025, 1, 1)}, ErrEmptyTitle},
		{"long title", Transaction{Title: strings.Repeat("x", 201), Amount: Money{Cents: 1}, Type: Income, Date: NewDate(2025, 1, 1)}, ErrTitleTooLong},
		{"zero amount", Transaction{Title: "a", Type: Income, Date: NewDate(2025, 1, 1)}, ErrInvalidAmount},
		{"bad type", Transaction{Title: "a", Amount: Money{Cents: 1}, Type: "transfer", Date: NewDate(2025, 1, 1)}, ErrInvalidType},
	}
	for _, tc := range bads {
		err := tc.tx.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !IsValidation(err) {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestGoalValidate(t *testing.T) {
	cat, err := ParseGoalCategory("")
	if err != nil || cat != GoalOther {
		t.Fatalf("empty category should default to other, got %q (%v)", cat, err)
	}
	if _, err := ParseGoalCategory("yacht"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}

	g := Goal{Title: "Trip", Target: Money{Cents: 10000000}, Category: GoalTravel}
	if err := g.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if g.Reached() {
		t.Fatalf("goal with nothing saved should not be reached")
	}
	g.Current = Money{Cents: 10000000}
	if !g.Reached() {
		t.Fatalf("goal with current == target should be reached")
	}
	g.Current = Money{Cents: -1}
	if err := g.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative current, got %v", err)
	}
}

func TestQuickNoteValidate(t *testing.T) {
	if err := (QuickNote{Text: "  pay rent "}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (QuickNote{Text: "   "}).Validate(); !errors.Is(err, ErrEmptyNote) {
		t.Fatalf("expected ErrEmptyNote, got %v", err)
	}
}
