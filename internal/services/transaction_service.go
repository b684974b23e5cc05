package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"moneyflow/internal/core"
	"moneyflow/internal/stats"
	"moneyflow/internal/store"
)

// TransactionStore is the part of the store the transaction service uses.
type TransactionStore interface {
	store.TransactionWriter
	store.TransactionLister
}

// TransactionService records income and expenses and builds reports
// from them.
type TransactionService struct {
	store   TransactionStore
	changes *Changes
	now     func() time.Time
}

func NewTransactionService(st TransactionStore, changes *Changes) *TransactionService {
	return &TransactionService{
		store:   st,
		changes: changes,
		now:     time.Now,
	}
}

// BalanceView holds all-time totals for the home page.
type BalanceView struct {
	Income  core.Money
	Expense core.Money
	Balance core.Money
}

// Create stores a transaction. A missing date means today.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Date.IsZero() {
		t.Date = core.Today(s.now())
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.Append(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.changes.notify()

	slog.InfoContext(ctx, "Transaction created",
		"id", saved.ID,
		"type", saved.Type,
		"amount_cents", saved.Amount.Cents,
		"date", saved.Date.String())
	return saved, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	s.changes.notify()
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// List returns every transaction, newest first.
func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Report aggregates the transactions that fall inside period.
func (s *TransactionService) Report(ctx context.Context, period core.Period) (stats.Report, error) {
	txs, err := s.List(ctx)
	if err != nil {
		return stats.Report{}, err
	}
	return stats.Build(txs, period, s.now()), nil
}

func (s *TransactionService) Balance(ctx context.Context) (BalanceView, error) {
	txs, err := s.List(ctx)
	if err != nil {
		return BalanceView{}, err
	}
	income, expense, balance := stats.Balance(txs)
	return BalanceView{Income: income, Expense: expense, Balance: balance}, nil
}
