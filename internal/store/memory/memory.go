package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"moneyflow/internal/core"
	"moneyflow/internal/store"
)

// Store keeps the whole dataset in process memory. It is the default
// backend for demos and tests; nothing survives a restart.
type Store struct {
	mu     sync.Mutex
	nextID int64
	now    func() time.Time

	txs        []core.Transaction // oldest first
	goals      []core.Goal
	notes      string
	quickNotes []core.QuickNote
}

func New() *Store {
	return &Store{now: time.Now}
}

// NewSeeded returns a store holding the given transactions, appended in
// order so the last one lists first.
func NewSeeded(seed []core.Transaction) *Store {
	s := New()
	for _, t := range seed {
		_, _ = s.Append(context.Background(), t)
	}
	return s
}

// NewFromFiles seeds transactions from base/seed_transactions.txt, one
// "YYYY-MM-DD;type;amount;title" per line, falling back to the demo
// transactions when the file is missing or holds no valid line.
func NewFromFiles(base string) *Store {
	seed := readSeed(filepath.Join(base, "seed_transactions.txt"))
	if len(seed) == 0 {
		seed = store.DemoTransactions()
	}
	return NewSeeded(seed)
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Append stores the transaction and assigns it an ID.
func (s *Store) Append(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.txs = append(s.txs, t)
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.txs {
		if t.ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

// ListTransactions returns a copy, newest first.
func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.txs))
	for i, t := range s.txs {
		out[len(s.txs)-1-i] = t
	}
	return out, nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.id()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now().UTC()
	}
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) GetGoal(_ context.Context, id int64) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goals {
		if g.ID == id {
			return g, nil
		}
	}
	return core.Goal{}, core.ErrNotFound
}

func (s *Store) ContributeGoal(_ context.Context, id int64, amount core.Money) (core.Goal, error) {
	if err := amount.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		g := &s.goals[i]
		if g.ID != id {
			continue
		}
		if g.Completed {
			return core.Goal{}, core.ErrGoalCompleted
		}
		current, err := g.Current.CheckedAdd(amount)
		if err != nil {
			return core.Goal{}, err
		}
		g.Current = current
		g.Completed = g.Reached()
		return *g, nil
	}
	return core.Goal{}, core.ErrNotFound
}

func (s *Store) DeleteGoal(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.goals {
		if g.ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListGoals(_ context.Context) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Goal(nil), s.goals...), nil
}

func (s *Store) GetNotes(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes, nil
}

func (s *Store) SaveNotes(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = text
	return nil
}

func (s *Store) AddQuickNote(_ context.Context, n core.QuickNote) (core.QuickNote, error) {
	if err := n.Validate(); err != nil {
		return core.QuickNote{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.id()
	n.Text = strings.TrimSpace(n.Text)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	s.quickNotes = append(s.quickNotes, n)
	return n, nil
}

func (s *Store) ToggleQuickNote(_ context.Context, id int64) (core.QuickNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.quickNotes {
		if s.quickNotes[i].ID == id {
			s.quickNotes[i].Completed = !s.quickNotes[i].Completed
			return s.quickNotes[i], nil
		}
	}
	return core.QuickNote{}, core.ErrNotFound
}

func (s *Store) DeleteQuickNote(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.quickNotes {
		if n.ID == id {
			s.quickNotes = append(s.quickNotes[:i], s.quickNotes[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListQuickNotes(_ context.Context) ([]core.QuickNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.QuickNote(nil), s.quickNotes...), nil
}

// ClearAll drops every collection. IDs keep counting up.
func (s *Store) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs, s.goals, s.quickNotes = nil, nil, nil
	s.notes = ""
	return nil
}

// Restore replaces the dataset. Snapshot transactions are newest first.
func (s *Store) Restore(_ context.Context, snap store.Snapshot) error {
	for _, t := range snap.Transactions {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, g := range snap.Goals {
		if err := g.Validate(); err != nil {
			return err
		}
	}
	for _, n := range snap.QuickNotes {
		if err := n.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = make([]core.Transaction, len(snap.Transactions))
	for i, t := range snap.Transactions {
		s.txs[len(snap.Transactions)-1-i] = t
	}
	s.goals = append([]core.Goal(nil), snap.Goals...)
	s.quickNotes = append([]core.QuickNote(nil), snap.QuickNotes...)
	s.notes = snap.Notes

	var maxID int64
	for _, t := range s.txs {
		maxID = max(maxID, t.ID)
	}
	for _, g := range s.goals {
		maxID = max(maxID, g.ID)
	}
	for _, n := range s.quickNotes {
		maxID = max(maxID, n.ID)
	}
	s.nextID = max(s.nextID, maxID)
	return nil
}

func readSeed(path string) []core.Transaction {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Transaction
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t, ok := parseSeedLine(line)
		if !ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

func parseSeedLine(line string) (core.Transaction, bool) {
	parts := strings.SplitN(line, ";", 4)
	if len(parts) != 4 {
		return core.Transaction{}, false
	}
	date, err := core.ParseDate(parts[0])
	if err != nil {
		return core.Transaction{}, false
	}
	typ, err := core.ParseTransactionType(parts[1])
	if err != nil {
		return core.Transaction{}, false
	}
	cents, err := core.ParseDecimalToCents(parts[2])
	if err != nil {
		return core.Transaction{}, false
	}
	t := core.Transaction{
		Title:  strings.TrimSpace(parts[3]),
		Amount: core.Money{Cents: cents},
		Type:   typ,
		Date:   date,
	}
	return t, t.Validate() == nil
}
