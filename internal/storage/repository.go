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

	"moneyflow/internal/core"
	"moneyflow/internal/store"

	_ "modernc.org/sqlite"
)

const (
	metaNotes  = "notes"
	metaSeeded = "demo_seeded"

	timeLayout = time.RFC3339Nano
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	version uint
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serialises anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		version: version,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SchemaVersion is the migration version the database was opened at.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.version
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SeedDemo stores the demo transactions the first time the database is
// opened. Later calls, including after ClearAll, do nothing.
func (r *SQLiteRepository) SeedDemo(ctx context.Context) (bool, error) {
	_, err := r.queries.GetMeta(ctx, metaSeeded)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("read seed flag: %w", err)
	}

	err = r.inTx(ctx, func(q *Queries) error {
		for _, t := range store.DemoTransactions() {
			if _, err := q.CreateTransaction(ctx, toTransactionRow(t)); err != nil {
				return fmt.Errorf("seed transaction: %w", err)
			}
		}
		return q.SetMeta(ctx, metaSeeded, time.Now().UTC().Format(timeLayout))
	})
	if err != nil {
		return false, err
	}
	slog.InfoContext(ctx, "Demo transactions seeded", "count", len(store.DemoTransactions()))
	return true, nil
}

// Append implements store.TransactionWriter
func (r *SQLiteRepository) Append(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	row, err := r.queries.CreateTransaction(ctx, toTransactionRow(t))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"title", row.Title,
		"amount_cents", row.AmountCents,
		"type", row.Type,
		"date", row.Date)

	return fromTransactionRow(row)
}

// DeleteTransaction implements store.TransactionWriter
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// ListTransactions implements store.TransactionLister
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := fromTransactionRow(row)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", row.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	id, err := r.queries.CreateGoal(ctx, toGoalRow(g))
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	g.ID = id
	slog.InfoContext(ctx, "Goal saved to SQLite", "id", id, "title", g.Title, "target_cents", g.Target.Cents)
	return g, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, id int64) (core.Goal, error) {
	row, err := r.queries.GetGoal(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal by id: %w", err)
	}
	return fromGoalRow(row)
}

func (r *SQLiteRepository) ContributeGoal(ctx context.Context, id int64, amount core.Money) (core.Goal, error) {
	if err := amount.Validate(); err != nil {
		return core.Goal{}, err
	}
	var g core.Goal
	err := r.inTx(ctx, func(q *Queries) error {
		n, err := q.ContributeGoal(ctx, ContributeGoalParams{ID: id, AmountCents: amount.Cents, LimitCents: core.MaxCents})
		if err != nil {
			return fmt.Errorf("contribute to goal: %w", err)
		}
		row, err := q.GetGoal(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get goal by id: %w", err)
		}
		if g, err = fromGoalRow(row); err != nil {
			return err
		}
		switch {
		case n > 0:
			return nil
		case g.Completed:
			return core.ErrGoalCompleted
		default:
			return core.ErrInvalidAmount
		}
	})
	if err != nil {
		return core.Goal{}, err
	}
	slog.InfoContext(ctx, "Goal contribution saved to SQLite", "id", id, "amount_cents", amount.Cents, "completed", g.Completed)
	return g, nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteGoal(ctx, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.queries.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]core.Goal, 0, len(rows))
	for _, row := range rows {
		g, err := fromGoalRow(row)
		if err != nil {
			return nil, fmt.Errorf("goal %d: %w", row.ID, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *SQLiteRepository) GetNotes(ctx context.Context) (string, error) {
	text, err := r.queries.GetMeta(ctx, metaNotes)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get notes: %w", err)
	}
	return text, nil
}

func (r *SQLiteRepository) SaveNotes(ctx context.Context, text string) error {
	if text == "" {
		if err := r.queries.DeleteMeta(ctx, metaNotes); err != nil {
			return fmt.Errorf("clear notes: %w", err)
		}
		return nil
	}
	if err := r.queries.SetMeta(ctx, metaNotes, text); err != nil {
		return fmt.Errorf("save notes: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) AddQuickNote(ctx context.Context, n core.QuickNote) (core.QuickNote, error) {
	if err := n.Validate(); err != nil {
		return core.QuickNote{}, err
	}
	n.Text = strings.TrimSpace(n.Text)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	id, err := r.queries.CreateQuickNote(ctx, toQuickNoteRow(n))
	if err != nil {
		return core.QuickNote{}, fmt.Errorf("create quick note: %w", err)
	}
	n.ID = id
	return n, nil
}

func (r *SQLiteRepository) ToggleQuickNote(ctx context.Context, id int64) (core.QuickNote, error) {
	row, err := r.queries.ToggleQuickNote(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.QuickNote{}, core.ErrNotFound
	}
	if err != nil {
		return core.QuickNote{}, fmt.Errorf("toggle quick note: %w", err)
	}
	return fromQuickNoteRow(row)
}

func (r *SQLiteRepository) DeleteQuickNote(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteQuickNote(ctx, id)
	if err != nil {
		return fmt.Errorf("delete quick note: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListQuickNotes(ctx context.Context) ([]core.QuickNote, error) {
	rows, err := r.queries.ListQuickNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quick notes: %w", err)
	}
	out := make([]core.QuickNote, 0, len(rows))
	for _, row := range rows {
		n, err := fromQuickNoteRow(row)
		if err != nil {
			return nil, fmt.Errorf("quick note %d: %w", row.ID, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// ClearAll implements store.Resetter
func (r *SQLiteRepository) ClearAll(ctx context.Context) error {
	if err := r.inTx(ctx, func(q *Queries) error { return q.ClearData(ctx) }); err != nil {
		return fmt.Errorf("clear data: %w", err)
	}
	slog.WarnContext(ctx, "All data cleared")
	return nil
}

// Restore implements store.Resetter
func (r *SQLiteRepository) Restore(ctx context.Context, snap store.Snapshot) error {
	err := r.inTx(ctx, func(q *Queries) error {
		if err := q.ClearData(ctx); err != nil {
			return err
		}
		for _, t := range snap.Transactions {
			if err := t.Validate(); err != nil {
				return fmt.Errorf("transaction %d: %w", t.ID, err)
			}
			row := toTransactionRow(t)
			row.ID = t.ID
			if err := q.InsertTransactionWithID(ctx, row); err != nil {
				return fmt.Errorf("insert transaction %d: %w", t.ID, err)
			}
		}
		for _, g := range snap.Goals {
			if err := g.Validate(); err != nil {
				return fmt.Errorf("goal %d: %w", g.ID, err)
			}
			if err := q.InsertGoalWithID(ctx, toGoalRow(g)); err != nil {
				return fmt.Errorf("insert goal %d: %w", g.ID, err)
			}
		}
		for _, n := range snap.QuickNotes {
			if err := n.Validate(); err != nil {
				return fmt.Errorf("quick note %d: %w", n.ID, err)
			}
			if err := q.InsertQuickNoteWithID(ctx, toQuickNoteRow(n)); err != nil {
				return fmt.Errorf("insert quick note %d: %w", n.ID, err)
			}
		}
		if snap.Notes != "" {
			return q.SetMeta(ctx, metaNotes, snap.Notes)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	slog.InfoContext(ctx, "Data restored",
		"transactions", len(snap.Transactions),
		"goals", len(snap.Goals),
		"quick_notes", len(snap.QuickNotes))
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func toTransactionRow(t core.Transaction) TransactionRow {
	return TransactionRow{
		ID:          t.ID,
		Title:       t.Title,
		AmountCents: t.Amount.Cents,
		Type:        string(t.Type),
		Date:        t.Date.String(),
	}
}

func fromTransactionRow(row TransactionRow) (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:     row.ID,
		Title:  row.Title,
		Amount: core.Money{Cents: row.AmountCents},
		Type:   core.TransactionType(row.Type),
		Date:   date,
	}, nil
}

func toGoalRow(g core.Goal) GoalRow {
	row := GoalRow{
		ID:           g.ID,
		Title:        g.Title,
		TargetCents:  g.Target.Cents,
		CurrentCents: g.Current.Cents,
		Category:     string(g.Category),
		Completed:    g.Completed,
		CreatedAt:    g.CreatedAt.UTC().Format(timeLayout),
	}
	if !g.Deadline.IsZero() {
		row.Deadline = sql.NullString{String: g.Deadline.String(), Valid: true}
	}
	return row
}

func fromGoalRow(row GoalRow) (core.Goal, error) {
	created, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return core.Goal{}, fmt.Errorf("parse created_at: %w", err)
	}
	g := core.Goal{
		ID:        row.ID,
		Title:     row.Title,
		Target:    core.Money{Cents: row.TargetCents},
		Current:   core.Money{Cents: row.CurrentCents},
		Category:  core.GoalCategory(row.Category),
		CreatedAt: created,
		Completed: row.Completed,
	}
	if row.Deadline.Valid && row.Deadline.String != "" {
		if g.Deadline, err = core.ParseDate(row.Deadline.String); err != nil {
			return core.Goal{}, err
		}
	}
	return g, nil
}

func toQuickNoteRow(n core.QuickNote) QuickNoteRow {
	return QuickNoteRow{
		ID:        n.ID,
		Text:      n.Text,
		Completed: n.Completed,
		CreatedAt: n.CreatedAt.UTC().Format(timeLayout),
	}
}

func fromQuickNoteRow(row QuickNoteRow) (core.QuickNote, error) {
	created, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return core.QuickNote{}, fmt.Errorf("parse created_at: %w", err)
	}
	return core.QuickNote{
		ID:        row.ID,
		Text:      row.Text,
		Completed: row.Completed,
		CreatedAt: created,
	}, nil
}
