package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the tables one to one.
type (
	TransactionRow struct {
		ID          int64
		Title       string
		AmountCents int64
		Type        string
		Date        string
	}

	GoalRow struct {
		ID           int64
		Title        string
		TargetCents  int64
		CurrentCents int64
		Deadline     sql.NullString
		Category     string
		Completed    bool
		CreatedAt    string
	}

	QuickNoteRow struct {
		ID        int64
		Text      string
		Completed bool
		CreatedAt string
	}
)

const createTransaction = `
INSERT INTO transactions (title, amount_cents, type, date)
VALUES (?, ?, ?, ?)
RETURNING id, title, amount_cents, type, date`

func (q *Queries) CreateTransaction(ctx context.Context, arg TransactionRow) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, createTransaction, arg.Title, arg.AmountCents, arg.Type, arg.Date)
	var i TransactionRow
	err := row.Scan(&i.ID, &i.Title, &i.AmountCents, &i.Type, &i.Date)
	return i, err
}

const insertTransactionWithID = `
INSERT INTO transactions (id, title, amount_cents, type, date)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) InsertTransactionWithID(ctx context.Context, arg TransactionRow) error {
	_, err := q.db.ExecContext(ctx, insertTransactionWithID, arg.ID, arg.Title, arg.AmountCents, arg.Type, arg.Date)
	return err
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listTransactions = `
SELECT id, title, amount_cents, type, date
FROM transactions
ORDER BY id DESC`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(&i.ID, &i.Title, &i.AmountCents, &i.Type, &i.Date); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createGoal = `
INSERT INTO goals (title, target_cents, current_cents, deadline, category, completed, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateGoal(ctx context.Context, arg GoalRow) (int64, error) {
	row := q.db.QueryRowContext(ctx, createGoal,
		arg.Title, arg.TargetCents, arg.CurrentCents, arg.Deadline, arg.Category, arg.Completed, arg.CreatedAt)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const insertGoalWithID = `
INSERT INTO goals (id, title, target_cents, current_cents, deadline, category, completed, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertGoalWithID(ctx context.Context, arg GoalRow) error {
	_, err := q.db.ExecContext(ctx, insertGoalWithID,
		arg.ID, arg.Title, arg.TargetCents, arg.CurrentCents, arg.Deadline, arg.Category, arg.Completed, arg.CreatedAt)
	return err
}

const getGoal = `
SELECT id, title, target_cents, current_cents, deadline, category, completed, created_at
FROM goals
WHERE id = ?`

func (q *Queries) GetGoal(ctx context.Context, id int64) (GoalRow, error) {
	row := q.db.QueryRowContext(ctx, getGoal, id)
	var i GoalRow
	err := row.Scan(&i.ID, &i.Title, &i.TargetCents, &i.CurrentCents, &i.Deadline, &i.Category, &i.Completed, &i.CreatedAt)
	return i, err
}

const contributeGoal = `
UPDATE goals
SET current_cents = current_cents + ?,
    completed = (current_cents + ? >= target_cents)
WHERE id = ? AND completed = 0 AND current_cents <= ? - ?`

type ContributeGoalParams struct {
	ID          int64
	AmountCents int64
	LimitCents  int64
}

// ContributeGoal reports zero rows when the goal is missing, completed or
// would pass LimitCents.
func (q *Queries) ContributeGoal(ctx context.Context, arg ContributeGoalParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, contributeGoal,
		arg.AmountCents, arg.AmountCents, arg.ID, arg.LimitCents, arg.AmountCents)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteGoal = `DELETE FROM goals WHERE id = ?`

func (q *Queries) DeleteGoal(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteGoal, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listGoals = `
SELECT id, title, target_cents, current_cents, deadline, category, completed, created_at
FROM goals
ORDER BY id`

func (q *Queries) ListGoals(ctx context.Context) ([]GoalRow, error) {
	rows, err := q.db.QueryContext(ctx, listGoals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GoalRow
	for rows.Next() {
		var i GoalRow
		if err := rows.Scan(&i.ID, &i.Title, &i.TargetCents, &i.CurrentCents, &i.Deadline, &i.Category, &i.Completed, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createQuickNote = `
INSERT INTO quick_notes (text, completed, created_at)
VALUES (?, ?, ?)
RETURNING id`

func (q *Queries) CreateQuickNote(ctx context.Context, arg QuickNoteRow) (int64, error) {
	row := q.db.QueryRowContext(ctx, createQuickNote, arg.Text, arg.Completed, arg.CreatedAt)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const insertQuickNoteWithID = `
INSERT INTO quick_notes (id, text, completed, created_at)
VALUES (?, ?, ?, ?)`

func (q *Queries) InsertQuickNoteWithID(ctx context.Context, arg QuickNoteRow) error {
	_, err := q.db.ExecContext(ctx, insertQuickNoteWithID, arg.ID, arg.Text, arg.Completed, arg.CreatedAt)
	return err
}

const toggleQuickNote = `
UPDATE quick_notes
SET completed = NOT completed
WHERE id = ?
RETURNING id, text, completed, created_at`

func (q *Queries) ToggleQuickNote(ctx context.Context, id int64) (QuickNoteRow, error) {
	row := q.db.QueryRowContext(ctx, toggleQuickNote, id)
	var i QuickNoteRow
	err := row.Scan(&i.ID, &i.Text, &i.Completed, &i.CreatedAt)
	return i, err
}

const deleteQuickNote = `DELETE FROM quick_notes WHERE id = ?`

func (q *Queries) DeleteQuickNote(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteQuickNote, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listQuickNotes = `
SELECT id, text, completed, created_at
FROM quick_notes
ORDER BY id`

func (q *Queries) ListQuickNotes(ctx context.Context) ([]QuickNoteRow, error) {
	rows, err := q.db.QueryContext(ctx, listQuickNotes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []QuickNoteRow
	for rows.Next() {
		var i QuickNoteRow
		if err := rows.Scan(&i.ID, &i.Text, &i.Completed, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getMeta = `SELECT value FROM meta WHERE key = ?`

func (q *Queries) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, getMeta, key).Scan(&value)
	return value, err
}

const setMeta = `
INSERT INTO meta (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`

func (q *Queries) SetMeta(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, setMeta, key, value)
	return err
}

const deleteMeta = `DELETE FROM meta WHERE key = ?`

func (q *Queries) DeleteMeta(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, deleteMeta, key)
	return err
}

// ClearData removes user data; meta flags other than notes are kept.
func (q *Queries) ClearData(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM transactions`,
		`DELETE FROM goals`,
		`DELETE FROM quick_notes`,
		`DELETE FROM meta WHERE key = 'notes'`,
	} {
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
