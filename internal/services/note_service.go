package services

import (
	"context"
	"fmt"

	"moneyflow/internal/core"
	"moneyflow/internal/store"
)

type NoteService struct {
	notes store.NoteStore
}

func NewNoteService(notes store.NoteStore) *NoteService {
	return &NoteService{notes: notes}
}

// QuickNotesView lists the checklist with the number of done items.
type QuickNotesView struct {
	Items []core.QuickNote
	Done  int
}

func (s *NoteService) Notes(ctx context.Context) (string, error) {
	text, err := s.notes.GetNotes(ctx)
	if err != nil {
		return "", fmt.Errorf("get notes: %w", err)
	}
	return text, nil
}

// SaveNotes replaces the free-text note; an empty text clears it.
func (s *NoteService) SaveNotes(ctx context.Context, text string) error {
	if err := s.notes.SaveNotes(ctx, text); err != nil {
		return fmt.Errorf("save notes: %w", err)
	}
	return nil
}

func (s *NoteService) ClearNotes(ctx context.Context) error {
	return s.SaveNotes(ctx, "")
}

func (s *NoteService) AddQuickNote(ctx context.Context, text string) (core.QuickNote, error) {
	n := core.QuickNote{Text: text}
	if err := n.Validate(); err != nil {
		return core.QuickNote{}, err
	}
	saved, err := s.notes.AddQuickNote(ctx, n)
	if err != nil {
		return core.QuickNote{}, fmt.Errorf("add quick note: %w", err)
	}
	return saved, nil
}

func (s *NoteService) ToggleQuickNote(ctx context.Context, id int64) (core.QuickNote, error) {
	n, err := s.notes.ToggleQuickNote(ctx, id)
	if err != nil {
		return core.QuickNote{}, fmt.Errorf("toggle quick note %d: %w", id, err)
	}
	return n, nil
}

func (s *NoteService) DeleteQuickNote(ctx context.Context, id int64) error {
	if err := s.notes.DeleteQuickNote(ctx, id); err != nil {
		return fmt.Errorf("delete quick note %d: %w", id, err)
	}
	return nil
}

func (s *NoteService) QuickNotes(ctx context.Context) (QuickNotesView, error) {
	items, err := s.notes.ListQuickNotes(ctx)
	if err != nil {
		return QuickNotesView{}, fmt.Errorf("list quick notes: %w", err)
	}
	view := QuickNotesView{Items: items}
	for _, n := range items {
		if n.Completed {
			view.Done++
		}
	}
	return view, nil
}
