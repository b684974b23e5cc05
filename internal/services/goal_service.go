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

type GoalService struct {
	goals store.GoalStore
	now   func() time.Time
}

func NewGoalService(goals store.GoalStore) *GoalService {
	return &GoalService{goals: goals, now: time.Now}
}

// GoalsView is the plans page: every goal with its progress plus totals.
type GoalsView struct {
	Goals   []stats.GoalView
	Summary stats.GoalSummary
}

// Create stores a new goal. Completed follows from the amounts given.
func (s *GoalService) Create(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.Title = strings.TrimSpace(g.Title)
	if g.Category == "" {
		g.Category = core.GoalOther
	}
	g.Completed = g.Reached()
	g.CreatedAt = s.now().UTC()
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	saved, err := s.goals.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	slog.InfoContext(ctx, "Goal created",
		"id", saved.ID,
		"category", saved.Category,
		"target_cents", saved.Target.Cents)
	return saved, nil
}

// Contribute adds amount to a goal that is not completed yet.
func (s *GoalService) Contribute(ctx context.Context, id int64, amount core.Money) (core.Goal, error) {
	if err := amount.Validate(); err != nil {
		return core.Goal{}, err
	}
	g, err := s.goals.ContributeGoal(ctx, id, amount)
	if err != nil {
		return core.Goal{}, fmt.Errorf("contribute to goal %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Goal contribution added",
		"id", id,
		"amount_cents", amount.Cents,
		"completed", g.Completed)
	return g, nil
}

func (s *GoalService) Delete(ctx context.Context, id int64) error {
	if err := s.goals.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Goal deleted", "id", id)
	return nil
}

func (s *GoalService) List(ctx context.Context) (GoalsView, error) {
	goals, err := s.goals.ListGoals(ctx)
	if err != nil {
		return GoalsView{}, fmt.Errorf("list goals: %w", err)
	}
	return GoalsView{
		Goals:   stats.ViewGoals(goals, s.now()),
		Summary: stats.SummarizeGoals(goals),
	}, nil
}
