package http

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"moneyflow/internal/calc"
	applog "moneyflow/internal/log"
	"moneyflow/internal/tips"
)

// handleInfo renders tips, notes and the calculators with their default
// inputs already computed.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	data := infoPage{
		pageData:   s.page("Info", pageInfo),
		Savings:    calc.DefaultSavings(),
		Loan:       calc.DefaultLoan(),
		Investment: calc.DefaultInvestment(),
		GoalPlan:   calc.DefaultGoalPlan(),
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		list, err := tips.All()
		if err != nil {
			return err
		}
		for i, t := range list {
			data.Tips = append(data.Tips, tipView{Number: i + 1, Title: t.Title, Content: t.Content})
		}
		return nil
	})
	g.Go(func() error {
		var err error
		data.Notes, err = s.notes.Notes(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		data.QuickNotes, err = s.notes.QuickNotes(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		if data.SavingsResult, err = data.Savings.Calculate(); err != nil {
			return err
		}
		if data.LoanResult, err = data.Loan.Calculate(); err != nil {
			return err
		}
		if data.InvestmentResult, err = data.Investment.Calculate(); err != nil {
			return err
		}
		data.GoalPlanResult, err = data.GoalPlan.Calculate()
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, err, applog.ComponentNotes, applog.OpRead)
		return
	}

	s.render(w, r, pageInfo, data)
}

func (s *Server) handleTips(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	list, err := tips.All()
	if err != nil {
		s.fail(w, r, err, applog.ComponentApp, applog.OpRead)
		return
	}
	NewHTMXResponse().BodyJSON(map[string][]tips.Tip{"tips": list}).Write(w)
}

// Calculator endpoints take their inputs from the query string; anything
// omitted keeps the default the UI opens with.

func (s *Server) handleCalcSavings(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	q := r.URL.Query()
	in := calc.DefaultSavings()
	var err error
	if in.Monthly, err = DecimalParam(q, "monthly", in.Monthly); err == nil {
		if in.Months, err = IntParam(q, "months", in.Months); err == nil {
			in.RatePct, err = DecimalParam(q, "rate", in.RatePct)
		}
	}
	if err != nil {
		s.fail(w, r, badRequest(err), applog.ComponentApp, applog.OpParse)
		return
	}
	s.writeCalc(w, r, func() (interface{}, error) { return in.Calculate() })
}

func (s *Server) handleCalcLoan(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	q := r.URL.Query()
	in := calc.DefaultLoan()
	var err error
	if in.Amount, err = DecimalParam(q, "amount", in.Amount); err == nil {
		if in.TermMonths, err = IntParam(q, "term", in.TermMonths); err == nil {
			in.RatePct, err = DecimalParam(q, "rate", in.RatePct)
		}
	}
	if err != nil {
		s.fail(w, r, badRequest(err), applog.ComponentApp, applog.OpParse)
		return
	}
	s.writeCalc(w, r, func() (interface{}, error) { return in.Calculate() })
}

func (s *Server) handleCalcInvestment(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	q := r.URL.Query()
	in := calc.DefaultInvestment()
	var err error
	if in.Initial, err = DecimalParam(q, "initial", in.Initial); err == nil {
		if in.Monthly, err = DecimalParam(q, "monthly", in.Monthly); err == nil {
			if in.Years, err = IntParam(q, "years", in.Years); err == nil {
				in.RatePct, err = DecimalParam(q, "rate", in.RatePct)
			}
		}
	}
	if err != nil {
		s.fail(w, r, badRequest(err), applog.ComponentApp, applog.OpParse)
		return
	}
	s.writeCalc(w, r, func() (interface{}, error) { return in.Calculate() })
}

func (s *Server) handleCalcGoal(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	q := r.URL.Query()
	in := calc.DefaultGoalPlan()
	var err error
	if in.Target, err = DecimalParam(q, "target", in.Target); err == nil {
		if in.Months, err = IntParam(q, "months", in.Months); err == nil {
			if in.Current, err = DecimalParam(q, "current", in.Current); err == nil {
				in.RatePct, err = DecimalParam(q, "rate", in.RatePct)
			}
		}
	}
	if err != nil {
		s.fail(w, r, badRequest(err), applog.ComponentApp, applog.OpParse)
		return
	}
	s.writeCalc(w, r, func() (interface{}, error) { return in.Calculate() })
}

func (s *Server) writeCalc(w http.ResponseWriter, r *http.Request, compute func() (interface{}, error)) {
	result, err := compute()
	if err != nil {
		s.fail(w, r, err, applog.ComponentApp, applog.OpRead)
		return
	}
	NewHTMXResponse().BodyJSON(result).Write(w)
}

// handleNotes reads (GET) or replaces (POST) the free-text note. Posting
// an empty text clears it.
func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	if r.Method == http.MethodGet {
		text, err := s.notes.Notes(r.Context())
		if err != nil {
			s.fail(w, r, err, applog.ComponentNotes, applog.OpRead)
			return
		}
		NewHTMXResponse().BodyJSON(notesJSON{Notes: text}).Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, parseFailure(err), applog.ComponentNotes, applog.OpParse)
		return
	}
	text := p.Get("notes")
	if err := s.notes.SaveNotes(r.Context(), text); err != nil {
		s.fail(w, r, err, applog.ComponentNotes, applog.OpUpdate)
		return
	}

	msg := "Notes saved"
	if text == "" {
		msg = "Notes cleared"
	}
	b := NewHTMXResponse().
		TriggerNotesChanged().
		TriggerSuccessNotification(msg)
	s.finish(w, r, b, notesJSON{Notes: text}, "/info")
}

// handleQuickNotes lists (GET) or adds (POST, field "text") checklist items.
func (s *Server) handleQuickNotes(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	if r.Method == http.MethodGet {
		view, err := s.notes.QuickNotes(r.Context())
		if err != nil {
			s.fail(w, r, err, applog.ComponentNotes, applog.OpList)
			return
		}
		NewHTMXResponse().BodyJSON(newQuickNotesJSON(view)).Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, parseFailure(err), applog.ComponentNotes, applog.OpParse)
		return
	}
	saved, err := s.notes.AddQuickNote(r.Context(), p.Get("text"))
	if err != nil {
		s.fail(w, r, err, applog.ComponentNotes, applog.OpCreate)
		return
	}

	b := NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerNotesChanged().
		TriggerFormReset()
	s.finish(w, r, b, newQuickNoteJSON(saved), "/info")
}

func (s *Server) handleToggleQuickNote(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, parseFailure(err), applog.ComponentNotes, applog.OpParse)
		return
	}
	id, err := p.ID("id")
	if err != nil {
		s.fail(w, r, badRequest(err), applog.ComponentNotes, applog.OpUpdate)
		return
	}
	n, err := s.notes.ToggleQuickNote(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, applog.ComponentNotes, applog.OpUpdate)
		return
	}
	s.finish(w, r, NewHTMXResponse().TriggerNotesChanged(), newQuickNoteJSON(n), "/info")
}

func (s *Server) handleDeleteQuickNote(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, parseFailure(err), applog.ComponentNotes, applog.OpParse)
		return
	}
	id, err := p.ID("id")
	if err != nil {
		s.fail(w, r, badRequest(err), applog.ComponentNotes, applog.OpDelete)
		return
	}
	if err := s.notes.DeleteQuickNote(r.Context(), id); err != nil {
		s.fail(w, r, err, applog.ComponentNotes, applog.OpDelete)
		return
	}
	s.finish(w, r, NewHTMXResponse().TriggerNotesChanged(), map[string]int64{"deleted": id}, "/info")
}
