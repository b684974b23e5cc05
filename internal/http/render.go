package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"moneyflow/internal/calc"
	"moneyflow/internal/core"
	applog "moneyflow/internal/log"
	"moneyflow/internal/services"
	"moneyflow/internal/stats"
)

const (
	pageIndex      = "index"
	pageStatistics = "statistics"
	pagePlans      = "plans"
	pageInfo       = "info"

	// chartHeight is the pixel height of the tallest statistics bar.
	chartHeight = 160
)

var pages = []string{pageIndex, pageStatistics, pagePlans, pageInfo}

// errBadRequest marks malformed input that is not a domain validation
// failure, such as an unknown period or a non-numeric id.
var errBadRequest = errors.New("bad request")

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// loadTemplates parses the shared layout once and clones it per page, so
// each page can define its own "content" block.
func loadTemplates(fsys fs.FS, funcs template.FuncMap) (map[string]*template.Template, error) {
	base, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	out := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(fsys, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string {
			return m.Format(s.currency)
		},
		// major formats a calculator result given in major units.
		"major": func(d decimal.Decimal) string {
			return core.MoneyFromMajor(d).Format(s.currency)
		},
		"pct": func(d decimal.Decimal) string {
			return d.StringFixed(2) + "%"
		},
		"barHeight": func(c stats.Chart, m core.Money) int {
			return c.BarHeight(m, chartHeight)
		},
		"barY": func(c stats.Chart, m core.Money) int {
			return chartHeight - c.BarHeight(m, chartHeight)
		},
		"add": func(a, b int) int {
			return a + b
		},
		"mul": func(a, b int) int {
			return a * b
		},
	}
}

// pageData is what the layout needs on every page.
type pageData struct {
	Title    string
	Active   string
	Currency string
}

func (s *Server) page(title, active string) pageData {
	return pageData{Title: title, Active: active, Currency: s.currency}
}

type (
	indexPage struct {
		pageData
		Balance      services.BalanceView
		Transactions []core.Transaction
		Today        string
	}

	statisticsPage struct {
		pageData
		Report  stats.Report
		Periods []core.Period
		Balance services.BalanceView
	}

	plansPage struct {
		pageData
		Goals      services.GoalsView
		Categories []core.GoalCategory
		Today      string
	}

	infoPage struct {
		pageData
		Tips       []tipView
		Notes      string
		QuickNotes services.QuickNotesView

		Savings          calc.Savings
		SavingsResult    calc.SavingsResult
		Loan             calc.Loan
		LoanResult       calc.LoanResult
		Investment       calc.Investment
		InvestmentResult calc.InvestmentResult
		GoalPlan         calc.GoalPlan
		GoalPlanResult   calc.GoalPlanResult
	}

	tipView struct {
		Number  int
		Title   string
		Content string
	}
)

// render executes a page into a buffer first so a template error never
// leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, data interface{}) {
	t, ok := s.templates[page]
	if !ok {
		s.logger.ErrorContext(r.Context(), "Template not loaded",
			applog.FieldTemplate, page,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		InternalServerError("Template not loaded").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.slog.LogError(r.Context(), "Template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.NewFields().WithErrorType(applog.ErrorTypeInternal))
		InternalServerError("Internal error").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// wantsJSON is true for API clients: a JSON body, an Accept header asking
// for JSON, or any /api/ call that is not a browser form post.
func wantsJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") || strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if !strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	return !strings.HasPrefix(ct, "application/x-www-form-urlencoded") &&
		!strings.HasPrefix(ct, "multipart/form-data")
}

// isPartial is true for requests sent by the page script.
func isPartial(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// finish answers a successful write: JSON for API clients, triggers for the
// page script, and a redirect back to the page for plain form posts.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, payload interface{}, redirect string) {
	switch {
	case wantsJSON(r):
		b.BodyJSON(payload).Write(w)
	case isPartial(r):
		b.Write(w)
	default:
		http.Redirect(w, r, redirect, http.StatusSeeOther)
	}
}

// fail maps err to a status and writes it in the form the client expects.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, component, operation string) {
	status, msg := classifyError(err)
	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		s.slog.LogError(r.Context(), "Request failed", err, component, operation,
			applog.NewFields().WithErrorType(applog.ErrorTypeInternal))
	} else {
		logger.WarnContext(r.Context(), "Request rejected",
			applog.FieldOperation, operation,
			applog.FieldStatusCode, status,
			applog.FieldError, err)
	}

	if wantsJSON(r) {
		NewHTMXResponse().
			Status(status).
			TriggerErrorNotification(msg).
			BodyJSON(errorBody{Error: msg}).
			Write(w)
		return
	}
	ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, errBadRequest), errors.Is(err, ErrMissingID):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), errBadRequest.Error()+": ")
	case errors.Is(err, services.ErrInvalidBackup):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not found"
	case core.IsValidation(err), isCalcError(err):
		return http.StatusUnprocessableEntity, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func isCalcError(err error) bool {
	return errors.Is(err, calc.ErrInvalidAmount) ||
		errors.Is(err, calc.ErrInvalidHorizon) ||
		errors.Is(err, calc.ErrInvalidRate)
}
