package http

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"moneyflow/internal/core"
	"moneyflow/internal/services"
	"moneyflow/internal/stats"
)

// JSON shapes of the API. Amounts are plain numbers in major units;
// display fields are formatted in the configured currency.
type (
	transactionJSON struct {
		ID      int64                `json:"id"`
		Title   string               `json:"title"`
		Amount  json.Number          `json:"amount"`
		Type    core.TransactionType `json:"type"`
		Date    string               `json:"date"`
		Display string               `json:"display"`
	}

	balanceJSON struct {
		Income  json.Number `json:"income"`
		Expense json.Number `json:"expense"`
		Balance json.Number `json:"balance"`
		Display string      `json:"display"`
	}

	transactionsJSON struct {
		Transactions []transactionJSON `json:"transactions"`
		Balance      balanceJSON       `json:"balance"`
	}

	totalsJSON struct {
		Income       json.Number `json:"income"`
		Expense      json.Number `json:"expense"`
		Balance      json.Number `json:"balance"`
		Count        int         `json:"count"`
		IncomeCount  int         `json:"incomeCount"`
		ExpenseCount int         `json:"expenseCount"`
		AvgIncome    json.Number `json:"avgIncome"`
		AvgExpense   json.Number `json:"avgExpense"`
		Ratio        string      `json:"ratio"`
	}

	categoryJSON struct {
		Category   string          `json:"category"`
		Income     json.Number     `json:"income"`
		Expense    json.Number     `json:"expense"`
		Total      json.Number     `json:"total"`
		Count      int             `json:"count"`
		IncomePct  decimal.Decimal `json:"incomePct"`
		ExpensePct decimal.Decimal `json:"expensePct"`
	}

	reportJSON struct {
		Period      core.Period    `json:"period"`
		GeneratedAt time.Time      `json:"generatedAt"`
		Totals      totalsJSON     `json:"totals"`
		Categories  []categoryJSON `json:"categories"`
	}

	goalJSON struct {
		ID        int64             `json:"id"`
		Title     string            `json:"title"`
		Target    json.Number       `json:"targetAmount"`
		Current   json.Number       `json:"currentAmount"`
		Deadline  string            `json:"deadline,omitempty"`
		Category  core.GoalCategory `json:"category"`
		Completed bool              `json:"completed"`
		CreatedAt time.Time         `json:"createdAt"`
		Progress  decimal.Decimal   `json:"progress"`
		Remaining json.Number       `json:"remaining"`
		DaysLeft  *int              `json:"daysLeft,omitempty"`
		Urgency   stats.Urgency     `json:"urgency,omitempty"`
	}

	goalsJSON struct {
		Goals   []goalJSON `json:"goals"`
		Summary struct {
			Count        int             `json:"count"`
			TotalTarget  json.Number     `json:"totalTarget"`
			TotalCurrent json.Number     `json:"totalCurrent"`
			Progress     decimal.Decimal `json:"progress"`
			Completed    int             `json:"completed"`
		} `json:"summary"`
	}

	quickNoteJSON struct {
		ID        int64     `json:"id"`
		Text      string    `json:"text"`
		Completed bool      `json:"completed"`
		CreatedAt time.Time `json:"createdAt"`
	}

	quickNotesJSON struct {
		Items []quickNoteJSON `json:"items"`
		Done  int             `json:"done"`
		Total int             `json:"total"`
	}

	notesJSON struct {
		Notes string `json:"notes"`
	}
)

func amount(m core.Money) json.Number {
	return json.Number(m.String())
}

func (s *Server) transactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:      t.ID,
		Title:   t.Title,
		Amount:  amount(t.Amount),
		Type:    t.Type,
		Date:    t.Date.String(),
		Display: t.Amount.Format(s.currency),
	}
}

func (s *Server) balanceJSON(b services.BalanceView) balanceJSON {
	return balanceJSON{
		Income:  amount(b.Income),
		Expense: amount(b.Expense),
		Balance: amount(b.Balance),
		Display: b.Balance.Format(s.currency),
	}
}

func newReportJSON(r stats.Report) reportJSON {
	out := reportJSON{
		Period:      r.Period,
		GeneratedAt: r.GeneratedAt.UTC(),
		Totals: totalsJSON{
			Income:       amount(r.Totals.Income),
			Expense:      amount(r.Totals.Expense),
			Balance:      amount(r.Totals.Balance),
			Count:        r.Totals.Count,
			IncomeCount:  r.Totals.IncomeCount,
			ExpenseCount: r.Totals.ExpenseCount,
			AvgIncome:    amount(r.Totals.AvgIncome),
			AvgExpense:   amount(r.Totals.AvgExpense),
			Ratio:        r.Totals.RatioString(),
		},
		Categories: make([]categoryJSON, 0, len(r.Categories)),
	}
	for _, c := range r.Categories {
		out.Categories = append(out.Categories, categoryJSON{
			Category:   c.Category,
			Income:     amount(c.Income),
			Expense:    amount(c.Expense),
			Total:      amount(c.Total),
			Count:      c.Count,
			IncomePct:  c.IncomePct,
			ExpensePct: c.ExpensePct,
		})
	}
	return out
}

func newGoalJSON(v stats.GoalView) goalJSON {
	g := goalJSON{
		ID:        v.ID,
		Title:     v.Title,
		Target:    amount(v.Target),
		Current:   amount(v.Current),
		Deadline:  v.Deadline.String(),
		Category:  v.Category,
		Completed: v.Completed,
		CreatedAt: v.CreatedAt.UTC(),
		Progress:  v.Progress,
		Remaining: amount(v.Remaining),
		Urgency:   v.Urgency,
	}
	if v.HasDeadline {
		days := v.DaysLeft
		g.DaysLeft = &days
	}
	return g
}

func newGoalsJSON(view services.GoalsView) goalsJSON {
	var out goalsJSON
	out.Goals = make([]goalJSON, 0, len(view.Goals))
	for _, g := range view.Goals {
		out.Goals = append(out.Goals, newGoalJSON(g))
	}
	out.Summary.Count = view.Summary.Count
	out.Summary.TotalTarget = amount(view.Summary.TotalTarget)
	out.Summary.TotalCurrent = amount(view.Summary.TotalCurrent)
	out.Summary.Progress = view.Summary.Progress
	out.Summary.Completed = view.Summary.Completed
	return out
}

func newQuickNoteJSON(n core.QuickNote) quickNoteJSON {
	return quickNoteJSON{ID: n.ID, Text: n.Text, Completed: n.Completed, CreatedAt: n.CreatedAt.UTC()}
}

func newQuickNotesJSON(v services.QuickNotesView) quickNotesJSON {
	out := quickNotesJSON{Items: make([]quickNoteJSON, 0, len(v.Items)), Done: v.Done, Total: len(v.Items)}
	for _, n := range v.Items {
		out.Items = append(out.Items, newQuickNoteJSON(n))
	}
	return out
}
