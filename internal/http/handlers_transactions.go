package http

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"moneyflow/internal/core"
	applog "moneyflow/internal/log"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	list, err := s.txs.List(r.Context())
	if err != nil {
		s.fail(w, r, err, applog.ComponentTransaction, applog.OpList)
		return
	}
	balance, err := s.txs.Balance(r.Context())
	if err != nil {
		s.fail(w, r, err, applog.ComponentTransaction, applog.OpRead)
		return
	}

	s.render(w, r, pageIndex, indexPage{
		pageData:     s.page("Home", pageIndex),
		Balance:      balance,
		Transactions: list,
		Today:        core.Today(time.Now()).String(),
	})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	period, err := ParsePeriodParam(r.URL.Query())
	if err != nil {
		s.fail(w, r, badRequest(err), applog.ComponentTransaction, applog.OpRead)
		return
	}

	data := statisticsPage{
		pageData: s.page("Statistics", pageStatistics),
		Periods:  core.Periods(),
	}
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		data.Report, err = s.report(ctx, period)
		return err
	})
	g.Go(func() error {
		var err error
		data.Balance, err = s.txs.Balance(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, err, applog.ComponentTransaction, applog.OpRead)
		return
	}

	s.render(w, r, pageStatistics, data)
}

// handleCreateTransaction accepts title, amount, type and an optional date
// (YYYY-MM-DD, today when blank) as a form or JSON body.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, parseFailure(err), applog.ComponentTransaction, applog.OpParse)
		return
	}

	kind, err := core.ParseTransactionType(p.Get("type"))
	if err != nil {
		s.fail(w, r, err, applog.ComponentTransaction, applog.OpCreate)
		return
	}
	amt, err := p.Money("amount")
	if err != nil {
		s.fail(w, r, err, applog.ComponentTransaction, applog.OpCreate)
		return
	}
	tx := core.Transaction{Title: p.Get("title"), Amount: amt, Type: kind}
	if v := p.Get("date"); v != "" {
		if tx.Date, err = core.ParseDate(v); err != nil {
			s.fail(w, r, err, applog.ComponentTransaction, applog.OpCreate)
			return
		}
	}

	saved, err := s.txs.Create(r.Context(), tx)
	if err != nil {
		s.fail(w, r, err, applog.ComponentTransaction, applog.OpCreate)
		return
	}
	s.appMetrics.transactionsCreated.Add(1)
	s.slog.LogTransactionCreated(r.Context(), saved.ID, string(saved.Type), saved.Amount.Cents)

	b := NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerTransactionsChanged(saved.ID).
		TriggerFormReset().
		TriggerSuccessNotification("Transaction added")
	s.finish(w, r, b, s.transactionJSON(saved), "/")
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, parseFailure(err), applog.ComponentTransaction, applog.OpParse)
		return
	}
	id, err := p.ID("id")
	if err != nil {
		s.fail(w, r, badRequest(err), applog.ComponentTransaction, applog.OpDelete)
		return
	}

	if err := s.txs.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err, applog.ComponentTransaction, applog.OpDelete)
		return
	}

	b := NewHTMXResponse().
		TriggerTransactionsChanged(id).
		TriggerSuccessNotification("Transaction deleted")
	s.finish(w, r, b, map[string]int64{"deleted": id}, "/")
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	list, err := s.txs.List(r.Context())
	if err != nil {
		s.fail(w, r, err, applog.ComponentTransaction, applog.OpList)
		return
	}
	balance, err := s.txs.Balance(r.Context())
	if err != nil {
		s.fail(w, r, err, applog.ComponentTransaction, applog.OpRead)
		return
	}

	out := transactionsJSON{
		Transactions: make([]transactionJSON, 0, len(list)),
		Balance:      s.balanceJSON(balance),
	}
	for _, t := range list {
		out.Transactions = append(out.Transactions, s.transactionJSON(t))
	}
	NewHTMXResponse().BodyJSON(out).Write(w)
}

func (s *Server) handleStatsAPI(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	period, err := ParsePeriodParam(r.URL.Query())
	if err != nil {
		s.fail(w, r, badRequest(err), applog.ComponentTransaction, applog.OpRead)
		return
	}
	report, err := s.report(r.Context(), period)
	if err != nil {
		s.fail(w, r, err, applog.ComponentTransaction, applog.OpRead)
		return
	}
	NewHTMXResponse().BodyJSON(newReportJSON(report)).Write(w)
}

// parseFailure keeps the size error distinct and reports anything else as
// a malformed body.
func parseFailure(err error) error {
	if errors.Is(err, ErrBodyTooLarge) {
		return err
	}
	return badRequest(err)
}
