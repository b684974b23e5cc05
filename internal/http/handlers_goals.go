package http

import (
	"net/http"
	"time"

	"moneyflow/internal/core"
	applog "moneyflow/internal/log"
	"moneyflow/internal/stats"
)

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	view, err := s.goals.List(r.Context())
	if err != nil {
		s.fail(w, r, err, applog.ComponentGoal, applog.OpList)
		return
	}
	s.render(w, r, pagePlans, plansPage{
		pageData:   s.page("Plans", pagePlans),
		Goals:      view,
		Categories: core.GoalCategories(),
		Today:      core.Today(time.Now()).String(),
	})
}

// handleCreateGoal takes title, targetAmount, optional currentAmount,
// deadline and category.
func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, parseFailure(err), applog.ComponentGoal, applog.OpParse)
		return
	}

	target, err := p.Money("targetAmount")
	if err != nil {
		s.fail(w, r, err, applog.ComponentGoal, applog.OpCreate)
		return
	}
	current, err := p.OptionalMoney("currentAmount")
	if err != nil {
		s.fail(w, r, err, applog.ComponentGoal, applog.OpCreate)
		return
	}
	g := core.Goal{Title: p.Get("title"), Target: target, Current: current}
	if v := p.Get("category"); v != "" {
		if g.Category, err = core.ParseGoalCategory(v); err != nil {
			s.fail(w, r, err, applog.ComponentGoal, applog.OpCreate)
			return
		}
	}
	if v := p.Get("deadline"); v != "" {
		if g.Deadline, err = core.ParseDate(v); err != nil {
			s.fail(w, r, err, applog.ComponentGoal, applog.OpCreate)
			return
		}
	}

	saved, err := s.goals.Create(r.Context(), g)
	if err != nil {
		s.fail(w, r, err, applog.ComponentGoal, applog.OpCreate)
		return
	}
	s.appMetrics.goalsCreated.Add(1)

	b := NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerGoalsChanged(saved.ID).
		TriggerFormReset().
		TriggerSuccessNotification("Goal created")
	s.finish(w, r, b, newGoalJSON(s.goalView(saved)), "/plans")
}

func (s *Server) handleContributeGoal(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, parseFailure(err), applog.ComponentGoal, applog.OpParse)
		return
	}
	id, err := p.ID("id")
	if err != nil {
		s.fail(w, r, badRequest(err), applog.ComponentGoal, applog.OpContribute)
		return
	}
	amt, err := p.Money("amount")
	if err != nil {
		s.fail(w, r, err, applog.ComponentGoal, applog.OpContribute)
		return
	}

	updated, err := s.goals.Contribute(r.Context(), id, amt)
	if err != nil {
		s.fail(w, r, err, applog.ComponentGoal, applog.OpContribute)
		return
	}

	msg := "Contribution added"
	if updated.Completed {
		msg = "Goal reached"
	}
	b := NewHTMXResponse().
		TriggerGoalsChanged(id).
		TriggerSuccessNotification(msg)
	s.finish(w, r, b, newGoalJSON(s.goalView(updated)), "/plans")
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, parseFailure(err), applog.ComponentGoal, applog.OpParse)
		return
	}
	id, err := p.ID("id")
	if err != nil {
		s.fail(w, r, badRequest(err), applog.ComponentGoal, applog.OpDelete)
		return
	}
	if err := s.goals.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err, applog.ComponentGoal, applog.OpDelete)
		return
	}

	b := NewHTMXResponse().
		TriggerGoalsChanged(id).
		TriggerSuccessNotification("Goal deleted")
	s.finish(w, r, b, map[string]int64{"deleted": id}, "/plans")
}

func (s *Server) handleGoalsAPI(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	view, err := s.goals.List(r.Context())
	if err != nil {
		s.fail(w, r, err, applog.ComponentGoal, applog.OpList)
		return
	}
	NewHTMXResponse().BodyJSON(newGoalsJSON(view)).Write(w)
}

func (s *Server) goalView(g core.Goal) stats.GoalView {
	return stats.ViewGoal(g, time.Now())
}
