package store

import (
	"context"

	"moneyflow/internal/core"
)

// Ports for the local stores.
type (
	TransactionWriter interface {
		// Append assigns an ID and returns the stored transaction.
		Append(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	// TransactionLister returns every transaction, newest first.
	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// GoalStore keeps savings goals in creation order.
	GoalStore interface {
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		GetGoal(ctx context.Context, id int64) (core.Goal, error)
		// ContributeGoal adds amount to the saved total in one step and
		// marks the goal completed once it reaches the target. It fails
		// with ErrGoalCompleted for goals that are already completed.
		ContributeGoal(ctx context.Context, id int64, amount core.Money) (core.Goal, error)
		DeleteGoal(ctx context.Context, id int64) error
		ListGoals(ctx context.Context) ([]core.Goal, error)
	}

	NoteStore interface {
		GetNotes(ctx context.Context) (string, error)
		SaveNotes(ctx context.Context, text string) error
		AddQuickNote(ctx context.Context, n core.QuickNote) (core.QuickNote, error)
		ToggleQuickNote(ctx context.Context, id int64) (core.QuickNote, error)
		DeleteQuickNote(ctx context.Context, id int64) error
		ListQuickNotes(ctx context.Context) ([]core.QuickNote, error)
	}

	// Resetter wipes or replaces the whole dataset at once.
	Resetter interface {
		ClearAll(ctx context.Context) error
		// Restore replaces every collection with the snapshot, keeping IDs.
		Restore(ctx context.Context, s Snapshot) error
	}

	// Store is the full local dataset.
	Store interface {
		TransactionWriter
		TransactionLister
		GoalStore
		NoteStore
		Resetter
	}

	// Snapshot is the complete dataset at one point in time.
	Snapshot struct {
		Transactions []core.Transaction
		Goals        []core.Goal
		Notes        string
		QuickNotes   []core.QuickNote
	}
)

// DemoTransactions are stored the first time an empty store is opened.
func DemoTransactions() []core.Transaction {
	return []core.Transaction{
		{Title: "Salary", Amount: core.Money{Cents: 2000000}, Type: core.Income, Date: core.NewDate(2025, 11, 28)},
		{Title: "Food", Amount: core.Money{Cents: 30000}, Type: core.Expense, Date: core.NewDate(2025, 11, 29)},
	}
}
