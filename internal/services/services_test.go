package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneyflow/internal/core"
	"moneyflow/internal/stats"
	"moneyflow/internal/store/memory"
)

var fixedNow = time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestTransactionService_Create(t *testing.T) {
	ctx := context.Background()
	changes := NewChanges()
	notified := 0
	changes.Subscribe(func() { notified++ })

	svc := NewTransactionService(memory.New(), changes)
	svc.now = clock

	saved, err := svc.Create(ctx, core.Transaction{
		Title:  "  Coffee ",
		Amount: core.Money{Cents: 350},
		Type:   core.Expense,
	})
	require.NoError(t, err)
	assert.Equal(t, "Coffee", saved.Title)
	assert.Equal(t, "2025-12-01", saved.Date.String(), "missing date defaults to today")
	assert.Equal(t, 1, notified)

	_, err = svc.Create(ctx, core.Transaction{Title: "x", Type: core.Income})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Equal(t, 1, notified, "failed writes do not notify")

	require.NoError(t, svc.Delete(ctx, saved.ID))
	assert.Equal(t, 2, notified)
	assert.ErrorIs(t, svc.Delete(ctx, saved.ID), core.ErrNotFound)
}

func TestTransactionService_ReportAndBalance(t *testing.T) {
	ctx := context.Background()
	svc := NewTransactionService(memory.NewSeeded([]core.Transaction{
		{Title: "Salary", Amount: core.Money{Cents: 2000000}, Type: core.Income, Date: core.NewDate(2025, 11, 28)},
		{Title: "Food", Amount: core.Money{Cents: 30000}, Type: core.Expense, Date: core.NewDate(2025, 11, 29)},
		{Title: "Old", Amount: core.Money{Cents: 100}, Type: core.Expense, Date: core.NewDate(2024, 1, 1)},
	}), nil)
	svc.now = clock

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Old", list[0].Title, "newest first")

	report, err := svc.Report(ctx, core.PeriodMonth)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Totals.Count)
	assert.Equal(t, int64(1970000), report.Totals.Balance.Cents)

	bal, err := svc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, BalanceView{
		Income:  core.Money{Cents: 2000000},
		Expense: core.Money{Cents: 30100},
		Balance: core.Money{Cents: 1969900},
	}, bal)
}

func TestGoalService(t *testing.T) {
	ctx := context.Background()
	svc := NewGoalService(memory.New())
	svc.now = clock

	g, err := svc.Create(ctx, core.Goal{
		Title:    "Vacation",
		Target:   core.Money{Cents: 10000000},
		Current:  core.Money{Cents: 2500000},
		Deadline: core.NewDate(2025, 12, 6),
	})
	require.NoError(t, err)
	assert.Equal(t, core.GoalOther, g.Category)
	assert.False(t, g.Completed)
	assert.Equal(t, fixedNow, g.CreatedAt)

	done, err := svc.Create(ctx, core.Goal{Title: "Phone", Target: core.Money{Cents: 100}, Current: core.Money{Cents: 100}, Category: core.GoalElectronics})
	require.NoError(t, err)
	assert.True(t, done.Completed, "current >= target completes the goal on creation")

	_, err = svc.Contribute(ctx, done.ID, core.Money{Cents: 1})
	assert.ErrorIs(t, err, core.ErrGoalCompleted)
	_, err = svc.Contribute(ctx, g.ID, core.Money{})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	_, err = svc.Contribute(ctx, 999, core.Money{Cents: 1})
	assert.ErrorIs(t, err, core.ErrNotFound)

	g, err = svc.Contribute(ctx, g.ID, core.Money{Cents: 7500000})
	require.NoError(t, err)
	assert.True(t, g.Completed)

	view, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, view.Goals, 2)
	assert.Equal(t, "Vacation", view.Goals[0].Title)
	assert.Equal(t, 5, view.Goals[0].DaysLeft)
	assert.Equal(t, stats.UrgencyCritical, view.Goals[0].Urgency)
	assert.Equal(t, 2, view.Summary.Completed)

	require.NoError(t, svc.Delete(ctx, g.ID))
	assert.ErrorIs(t, svc.Delete(ctx, g.ID), core.ErrNotFound)
}

func TestGoalService_ConcurrentContributions(t *testing.T) {
	ctx := context.Background()
	svc := NewGoalService(memory.New())

	g, err := svc.Create(ctx, core.Goal{Title: "Laptop", Target: core.Money{Cents: 30000}, Category: core.GoalElectronics})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Contribute(ctx, g.ID, core.Money{Cents: 1000})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	view, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, view.Goals, 1)
	assert.Equal(t, int64(30000), view.Goals[0].Current.Cents)
	assert.True(t, view.Goals[0].Completed)

	_, err = svc.Contribute(ctx, g.ID, core.Money{Cents: core.MaxCents + 1})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestNoteService(t *testing.T) {
	ctx := context.Background()
	svc := NewNoteService(memory.New())

	require.NoError(t, svc.SaveNotes(ctx, "cancel the gym"))
	text, err := svc.Notes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cancel the gym", text)
	require.NoError(t, svc.ClearNotes(ctx))
	text, _ = svc.Notes(ctx)
	assert.Empty(t, text)

	_, err = svc.AddQuickNote(ctx, "   ")
	assert.ErrorIs(t, err, core.ErrEmptyNote)

	a, err := svc.AddQuickNote(ctx, "pay rent")
	require.NoError(t, err)
	_, err = svc.AddQuickNote(ctx, "call bank")
	require.NoError(t, err)
	_, err = svc.ToggleQuickNote(ctx, a.ID)
	require.NoError(t, err)

	view, err := svc.QuickNotes(ctx)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, 1, view.Done)

	require.NoError(t, svc.DeleteQuickNote(ctx, a.ID))
	assert.ErrorIs(t, svc.DeleteQuickNote(ctx, a.ID), core.ErrNotFound)
}
