package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"moneyflow/internal/core"
	"moneyflow/internal/store"
)

// ErrInvalidBackup wraps every problem found while reading a backup file.
var ErrInvalidBackup = errors.New("invalid backup")

// Backup is the exported JSON document. Amounts are plain numbers in major
// units; transactions are listed newest first.
type Backup struct {
	Transactions []BackupTransaction `json:"transactions"`
	Goals        []BackupGoal        `json:"goals"`
	Notes        string              `json:"notes"`
	QuickNotes   []BackupQuickNote   `json:"quickNotes"`
	ExportDate   time.Time           `json:"exportDate"`
}

type BackupTransaction struct {
	ID     int64       `json:"id"`
	Title  string      `json:"title"`
	Amount json.Number `json:"amount"`
	Type   string      `json:"type"`
	Date   string      `json:"date"`
}

type BackupGoal struct {
	ID            int64       `json:"id"`
	Title         string      `json:"title"`
	TargetAmount  json.Number `json:"targetAmount"`
	CurrentAmount json.Number `json:"currentAmount"`
	Deadline      string      `json:"deadline,omitempty"`
	Category      string      `json:"category"`
	Completed     bool        `json:"completed"`
	CreatedAt     time.Time   `json:"createdAt"`
}

type BackupQuickNote struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// FileName is the download name of a backup exported at now, named by the
// UTC calendar day to match exportDate.
func FileName(now time.Time) string {
	return "moneyflow-backup-" + now.UTC().Format(core.DateLayout) + ".json"
}

// NewBackup converts a store snapshot into its exported form.
func NewBackup(snap store.Snapshot, exportedAt time.Time) Backup {
	b := Backup{
		Transactions: make([]BackupTransaction, 0, len(snap.Transactions)),
		Goals:        make([]BackupGoal, 0, len(snap.Goals)),
		Notes:        snap.Notes,
		QuickNotes:   make([]BackupQuickNote, 0, len(snap.QuickNotes)),
		ExportDate:   exportedAt.UTC(),
	}
	for _, t := range snap.Transactions {
		b.Transactions = append(b.Transactions, BackupTransaction{
			ID:     t.ID,
			Title:  t.Title,
			Amount: amountNumber(t.Amount),
			Type:   string(t.Type),
			Date:   t.Date.String(),
		})
	}
	for _, g := range snap.Goals {
		b.Goals = append(b.Goals, BackupGoal{
			ID:            g.ID,
			Title:         g.Title,
			TargetAmount:  amountNumber(g.Target),
			CurrentAmount: amountNumber(g.Current),
			Deadline:      g.Deadline.String(),
			Category:      string(g.Category),
			Completed:     g.Completed,
			CreatedAt:     g.CreatedAt.UTC(),
		})
	}
	for _, n := range snap.QuickNotes {
		b.QuickNotes = append(b.QuickNotes, BackupQuickNote{
			ID:        n.ID,
			Text:      n.Text,
			Completed: n.Completed,
			CreatedAt: n.CreatedAt.UTC(),
		})
	}
	return b
}

// ParseBackup decodes a backup document.
func ParseBackup(data []byte) (Backup, error) {
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return Backup{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	return b, nil
}

// Encode renders the backup as indented JSON.
func (b Backup) Encode() ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// Snapshot validates the backup and converts it back. Records without an
// ID get fresh ones; duplicate IDs are rejected. createdAt defaults to
// now when missing.
func (b Backup) Snapshot(now time.Time) (store.Snapshot, error) {
	ids := newIDAllocator(b)
	snap := store.Snapshot{Notes: b.Notes}

	for i, bt := range b.Transactions {
		t, err := bt.transaction()
		if err != nil {
			return store.Snapshot{}, fmt.Errorf("%w: transaction %d: %v", ErrInvalidBackup, i+1, err)
		}
		if t.ID, err = ids.take("transaction", t.ID); err != nil {
			return store.Snapshot{}, err
		}
		snap.Transactions = append(snap.Transactions, t)
	}
	for i, bg := range b.Goals {
		g, err := bg.goal(now)
		if err != nil {
			return store.Snapshot{}, fmt.Errorf("%w: goal %d: %v", ErrInvalidBackup, i+1, err)
		}
		if g.ID, err = ids.take("goal", g.ID); err != nil {
			return store.Snapshot{}, err
		}
		snap.Goals = append(snap.Goals, g)
	}
	for i, bn := range b.QuickNotes {
		n := core.QuickNote{ID: bn.ID, Text: bn.Text, Completed: bn.Completed, CreatedAt: bn.CreatedAt}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now.UTC()
		}
		if err := n.Validate(); err != nil {
			return store.Snapshot{}, fmt.Errorf("%w: quick note %d: %v", ErrInvalidBackup, i+1, err)
		}
		var err error
		if n.ID, err = ids.take("quick note", n.ID); err != nil {
			return store.Snapshot{}, err
		}
		snap.QuickNotes = append(snap.QuickNotes, n)
	}
	return snap, nil
}

func (bt BackupTransaction) transaction() (core.Transaction, error) {
	amount, err := parseAmount(bt.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseTransactionType(bt.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseBackupDate(bt.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{ID: bt.ID, Title: bt.Title, Amount: amount, Type: typ, Date: date}
	return t, t.Validate()
}

func (bg BackupGoal) goal(now time.Time) (core.Goal, error) {
	target, err := parseAmount(bg.TargetAmount)
	if err != nil {
		return core.Goal{}, err
	}
	current := core.Money{}
	if bg.CurrentAmount != "" {
		if current, err = parseAmount(bg.CurrentAmount); err != nil {
			return core.Goal{}, err
		}
	}
	category, err := core.ParseGoalCategory(bg.Category)
	if err != nil {
		return core.Goal{}, err
	}
	var deadline core.Date
	if bg.Deadline != "" {
		if deadline, err = parseBackupDate(bg.Deadline); err != nil {
			return core.Goal{}, err
		}
	}
	created := bg.CreatedAt
	if created.IsZero() {
		created = now.UTC()
	}
	g := core.Goal{
		ID:        bg.ID,
		Title:     bg.Title,
		Target:    target,
		Current:   current,
		Deadline:  deadline,
		Category:  category,
		CreatedAt: created,
		Completed: bg.Completed,
	}
	return g, g.Validate()
}

func amountNumber(m core.Money) json.Number {
	return json.Number(m.Decimal().String())
}

func parseAmount(n json.Number) (core.Money, error) {
	d, err := core.ParseDecimal(n.String())
	if err != nil {
		return core.Money{}, err
	}
	cents, err := core.DecimalToCents(d, true)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// parseBackupDate also accepts full timestamps and keeps their day.
func parseBackupDate(s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil && len(s) > len(core.DateLayout) {
		return core.ParseDate(s[:len(core.DateLayout)])
	}
	return d, err
}

type idAllocator struct {
	next int64
	seen map[string]map[int64]bool
}

func newIDAllocator(b Backup) *idAllocator {
	var top int64
	for _, t := range b.Transactions {
		top = max(top, t.ID)
	}
	for _, g := range b.Goals {
		top = max(top, g.ID)
	}
	for _, n := range b.QuickNotes {
		top = max(top, n.ID)
	}
	return &idAllocator{next: top, seen: map[string]map[int64]bool{}}
}

func (a *idAllocator) take(kind string, id int64) (int64, error) {
	if id <= 0 {
		a.next++
		id = a.next
	}
	if a.seen[kind] == nil {
		a.seen[kind] = map[int64]bool{}
	}
	if a.seen[kind][id] {
		return 0, fmt.Errorf("%w: duplicate %s id %d", ErrInvalidBackup, kind, id)
	}
	a.seen[kind][id] = true
	return id, nil
}
