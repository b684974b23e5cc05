package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneyflow/internal/core"
	applog "moneyflow/internal/log"
	"moneyflow/internal/services"
	"moneyflow/internal/store/memory"
)

type testEnv struct {
	srv       *Server
	store     *memory.Store
	backupDir string
}

func newTestServer(t *testing.T, ping func(context.Context) error) *testEnv {
	t.Helper()
	st := memory.New()
	changes := services.NewChanges()
	dir := t.TempDir()

	srv, err := NewServer(":0", Deps{
		Transactions: services.NewTransactionService(st, changes),
		Goals:        services.NewGoalService(st),
		Notes:        services.NewNoteService(st),
		Backup:       services.NewBackupService(st, nil, services.BackupConfig{Dir: dir, Keep: 3}, changes),
		Changes:      changes,
		Ping:         ping,
		Currency:     "RUB",
		Logger:       applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, store: st, backupDir: dir}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postJSON(path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func (e *testEnv) postForm(path string, form url.Values, partial bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if partial {
		req.Header.Set("HX-Request", "true")
	}
	return e.do(req)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func assertDecimal(t *testing.T, want string, got interface{}) {
	t.Helper()
	var s string
	switch v := got.(type) {
	case string:
		s = v
	case float64:
		s = decimal.NewFromFloat(v).String()
	default:
		t.Fatalf("unexpected decimal value %#v", got)
	}
	assert.True(t, decimal.RequireFromString(want).Equal(decimal.RequireFromString(s)), "want %s, got %s", want, s)
}

func TestPagesRender(t *testing.T) {
	env := newTestServer(t, nil)

	tests := []struct {
		path string
		want string
	}{
		{"/", "<h1>Balance</h1>"},
		{"/statistics", "Month"},
		{"/statistics?period=all", "All time"},
		{"/plans", "<h1>Savings goals</h1>"},
		{"/info", "<h1>Financial tips</h1>"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.get(tt.path)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestUnknownPathAndMethod(t *testing.T) {
	env := newTestServer(t, nil)

	assert.Equal(t, http.StatusNotFound, env.get("/nope").Code)
	assert.Equal(t, http.StatusBadRequest, env.get("/statistics?period=decade").Code)

	rec := env.do(httptest.NewRequest(http.MethodDelete, "/plans", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.StatusMethodNotAllowed, env.get("/transactions").Code)
}

func TestStaticAssets(t *testing.T) {
	env := newTestServer(t, nil)

	rec := env.get("/static/app.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=3600")
}

func TestCreateTransactionJSON(t *testing.T) {
	env := newTestServer(t, nil)

	rec := env.postJSON("/transactions", map[string]string{
		"title":  "Coffee",
		"amount": "3.50",
		"type":   "expense",
		"date":   "2025-12-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Coffee", body["title"])
	assert.Equal(t, "expense", body["type"])
	assert.Equal(t, "2025-12-01", body["date"])
	assertDecimal(t, "3.50", body["amount"])
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "transactions:changed")

	list := decode(t, env.get("/api/transactions"))
	txs := list["transactions"].([]interface{})
	require.Len(t, txs, 1)
	assertDecimal(t, "-3.50", list["balance"].(map[string]interface{})["balance"])
}

func TestCreateTransactionRejectsInvalidInput(t *testing.T) {
	env := newTestServer(t, nil)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing type", map[string]string{"title": "x", "amount": "1"}, http.StatusUnprocessableEntity},
		{"unknown type", map[string]string{"title": "x", "amount": "1", "type": "gift"}, http.StatusUnprocessableEntity},
		{"bad amount", map[string]string{"title": "x", "amount": "abc", "type": "income"}, http.StatusUnprocessableEntity},
		{"zero amount", map[string]string{"title": "x", "amount": "0", "type": "income"}, http.StatusUnprocessableEntity},
		{"blank title", map[string]string{"title": "  ", "amount": "5", "type": "income"}, http.StatusUnprocessableEntity},
		{"bad date", map[string]string{"title": "x", "amount": "5", "type": "income", "date": "01/12/2025"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.postJSON("/transactions", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}

	list, err := env.store.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateTransactionFormRedirectsAndPartialTriggers(t *testing.T) {
	env := newTestServer(t, nil)
	form := url.Values{"title": {"Salary"}, "amount": {"1000"}, "type": {"income"}}

	rec := env.postForm("/transactions", form, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = env.postForm("/transactions", form, true)
	assert.Equal(t, http.StatusCreated, rec.Code)
	trigger := rec.Header().Get("HX-Trigger")
	assert.Contains(t, trigger, "transactions:changed")
	assert.Contains(t, trigger, "form:reset")
	assert.Contains(t, trigger, "Transaction added")

	list, err := env.store.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, core.Today(time.Now()), list[0].Date)
}

func TestDeleteTransaction(t *testing.T) {
	env := newTestServer(t, nil)
	saved, err := env.store.Append(context.Background(), core.Transaction{
		Title: "Rent", Amount: core.Money{Cents: 50000}, Type: core.Expense, Date: core.NewDate(2025, 11, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, env.postJSON("/transactions/delete", map[string]string{}).Code)
	assert.Equal(t, http.StatusBadRequest, env.postJSON("/transactions/delete", map[string]string{"id": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, env.postJSON("/transactions/delete", map[string]int64{"id": saved.ID + 100}).Code)

	req := httptest.NewRequest(http.MethodDelete, "/transactions/delete?id="+strconv.FormatInt(saved.ID, 10), nil)
	req.Header.Set("Accept", "application/json")
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	list, err := env.store.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStatsAPIAndCacheInvalidation(t *testing.T) {
	env := newTestServer(t, nil)

	rec := env.get("/api/stats?period=all")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "all", body["period"])
	assert.EqualValues(t, 0, body["totals"].(map[string]interface{})["count"])

	// Served from cache the second time.
	env.get("/api/stats?period=all")
	metrics := env.get("/metrics").Body.String()
	assert.Contains(t, metrics, "report_cache_hits_total 1\n")

	created := env.postJSON("/transactions", map[string]string{"title": "Groceries", "amount": "40", "type": "expense"})
	require.Equal(t, http.StatusCreated, created.Code)
	created = env.postJSON("/transactions", map[string]string{"title": "Salary", "amount": "100", "type": "income"})
	require.Equal(t, http.StatusCreated, created.Code)

	body = decode(t, env.get("/api/stats?period=all"))
	totals := body["totals"].(map[string]interface{})
	assert.EqualValues(t, 2, totals["count"])
	assertDecimal(t, "60", totals["balance"])
	assert.Equal(t, "2.50", totals["ratio"])
	assert.Len(t, body["categories"], 2)

	assert.Equal(t, http.StatusBadRequest, env.get("/api/stats?period=fortnight").Code)
}

func TestGoalLifecycle(t *testing.T) {
	env := newTestServer(t, nil)

	rec := env.postJSON("/goals", map[string]string{
		"title":         "Laptop",
		"targetAmount":  "100",
		"currentAmount": "40",
		"category":      "electronics",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	goal := decode(t, rec)
	id := int64(goal["id"].(float64))
	assertDecimal(t, "40", goal["progress"])
	assert.Equal(t, false, goal["completed"])
	assert.NotContains(t, goal, "daysLeft")

	assert.Equal(t, http.StatusUnprocessableEntity,
		env.postJSON("/goals/contribute", map[string]interface{}{"id": id, "amount": "0"}).Code)

	rec = env.postJSON("/goals/contribute", map[string]interface{}{"id": id, "amount": "60"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	goal = decode(t, rec)
	assert.Equal(t, true, goal["completed"])
	assertDecimal(t, "0", goal["remaining"])
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "Goal reached")

	rec = env.postJSON("/goals/contribute", map[string]interface{}{"id": id, "amount": "1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	list := decode(t, env.get("/api/goals"))
	summary := list["summary"].(map[string]interface{})
	assert.EqualValues(t, 1, summary["count"])
	assert.EqualValues(t, 1, summary["completed"])

	assert.Equal(t, http.StatusOK, env.postJSON("/goals/delete", map[string]int64{"id": id}).Code)
	assert.Equal(t, http.StatusNotFound, env.postJSON("/goals/delete", map[string]int64{"id": id}).Code)
}

func TestCreateGoalValidation(t *testing.T) {
	env := newTestServer(t, nil)

	assert.Equal(t, http.StatusUnprocessableEntity,
		env.postJSON("/goals", map[string]string{"title": "Trip", "targetAmount": "-5"}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		env.postJSON("/goals", map[string]string{"title": "Trip", "targetAmount": "5", "category": "yacht"}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		env.postJSON("/goals", map[string]string{"title": "", "targetAmount": "5"}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		env.postJSON("/goals", map[string]string{"title": "Trip", "targetAmount": "5", "currentAmount": "184467440737095516.17"}).Code)

	deadline := time.Now().AddDate(0, 0, 10).Format("2006-01-02")
	rec := env.postJSON("/goals", map[string]string{"title": "Trip", "targetAmount": "5", "deadline": deadline})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, deadline, decode(t, rec)["deadline"])
}

func TestCalculators(t *testing.T) {
	env := newTestServer(t, nil)

	rec := env.get("/api/calc/loan?amount=120000&term=12&rate=0")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assertDecimal(t, "10000", body["monthlyPayment"])
	assertDecimal(t, "0", body["overpayment"])

	rec = env.get("/api/calc/savings")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec), "total")

	rec = env.get("/api/calc/investment?years=1&rate=0&initial=100&monthly=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assertDecimal(t, "220", decode(t, rec)["total"])

	rec = env.get("/api/calc/goal?target=1200&months=12&current=0&rate=0")
	require.Equal(t, http.StatusOK, rec.Code)
	assertDecimal(t, "100", decode(t, rec)["monthlyPayment"])

	assert.Equal(t, http.StatusUnprocessableEntity, env.get("/api/calc/loan?rate=150").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, env.get("/api/calc/savings?months=0").Code)
	assert.Equal(t, http.StatusBadRequest, env.get("/api/calc/savings?months=abc").Code)
}

func TestTipsAPI(t *testing.T) {
	env := newTestServer(t, nil)

	rec := env.get("/api/tips")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["tips"])
}

func TestNotesAndQuickNotes(t *testing.T) {
	env := newTestServer(t, nil)

	require.Equal(t, http.StatusOK, env.postJSON("/api/notes", map[string]string{"notes": "pay rent"}).Code)
	assert.Equal(t, "pay rent", decode(t, env.get("/api/notes"))["notes"])

	rec := env.postJSON("/api/notes", map[string]string{"notes": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "Notes cleared")
	assert.Equal(t, "", decode(t, env.get("/api/notes"))["notes"])

	assert.Equal(t, http.StatusUnprocessableEntity, env.postJSON("/api/quick-notes", map[string]string{"text": " "}).Code)

	rec = env.postJSON("/api/quick-notes", map[string]string{"text": "call bank"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := int64(decode(t, rec)["id"].(float64))

	rec = env.postJSON("/api/quick-notes/toggle", map[string]int64{"id": id})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["completed"])

	list := decode(t, env.get("/api/quick-notes"))
	assert.EqualValues(t, 1, list["done"])
	assert.EqualValues(t, 1, list["total"])

	assert.Equal(t, http.StatusOK, env.postJSON("/api/quick-notes/delete", map[string]int64{"id": id}).Code)
	assert.Equal(t, http.StatusNotFound, env.postJSON("/api/quick-notes/toggle", map[string]int64{"id": id}).Code)
}

func TestExportImportAndClear(t *testing.T) {
	env := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated,
		env.postJSON("/transactions", map[string]string{"title": "Bonus", "amount": "250.75", "type": "income", "date": "2025-06-01"}).Code)
	require.Equal(t, http.StatusCreated,
		env.postJSON("/goals", map[string]string{"title": "Car", "targetAmount": "5000"}).Code)
	require.Equal(t, http.StatusOK, env.postJSON("/api/notes", map[string]string{"notes": "keep receipts"}).Code)

	rec := env.get("/api/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="moneyflow-backup-`)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
	exported := rec.Body.Bytes()

	b, err := services.ParseBackup(exported)
	require.NoError(t, err)
	require.Len(t, b.Transactions, 1)
	assert.Equal(t, json.Number("250.75"), b.Transactions[0].Amount)

	rec = env.postJSON("/api/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "data:replaced")
	assert.Empty(t, decode(t, env.get("/api/transactions"))["transactions"])

	req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(string(exported)))
	req.Header.Set("Content-Type", "application/json")
	rec = env.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode(t, rec)["transactions"])

	list, err := env.store.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bonus", list[0].Title)
	assert.Equal(t, int64(25075), list[0].Amount.Cents)
	assert.Equal(t, "keep receipts", decode(t, env.get("/api/notes"))["notes"])
	assert.Contains(t, env.get("/metrics").Body.String(), "backup_imports_total 1\n")
}

func TestImportRejectsMalformedBackups(t *testing.T) {
	env := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "[]"},
		{"broken json", `{"transactions": [`},
		{"invalid transaction", `{"transactions":[{"id":1,"title":"","amount":1,"type":"income","date":"2025-01-01"}]}`},
		{"duplicate ids", `{"transactions":[` +
			`{"id":1,"title":"a","amount":1,"type":"income","date":"2025-01-01"},` +
			`{"id":1,"title":"b","amount":2,"type":"income","date":"2025-01-02"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := env.do(req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestRequestBackupWritesSnapshotWithoutBroker(t *testing.T) {
	env := newTestServer(t, nil)

	rec := env.postJSON("/api/backup", map[string]string{"reason": "test"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, false, body["queued"])

	path := body["path"].(string)
	assert.True(t, strings.HasPrefix(path, env.backupDir))
	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.Contains(t, env.get("/metrics").Body.String(), "backup_requests_total 1\n")
}

func TestHealthAndReadiness(t *testing.T) {
	env := newTestServer(t, nil)

	rec := env.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = env.get("/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])

	down := newTestServer(t, func(context.Context) error { return errors.New("database is locked") })
	rec = down.get("/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "not_ready", body["status"])
	assert.Contains(t, body["checks"].(map[string]interface{})["store"], "database is locked")
}

func TestMetricsExposition(t *testing.T) {
	env := newTestServer(t, nil)
	env.get("/")

	rec := env.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	for _, name := range []string{
		"http_requests_total",
		"transactions_created_total",
		"report_cache_entries",
		"rate_limit_rejected_total",
		"uptime_seconds",
	} {
		assert.Contains(t, rec.Body.String(), "# TYPE "+name+" ")
	}
}

func TestRateLimitRejectsBurstOfWrites(t *testing.T) {
	env := newTestServer(t, nil)

	var last *httptest.ResponseRecorder
	for i := 0; i < 61; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/quick-notes/delete", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "198.51.100.7:4242"
		last = env.do(req)
		if i < 60 {
			require.Equal(t, http.StatusBadRequest, last.Code, "request %d", i)
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))

	// Reads are never limited.
	assert.Equal(t, http.StatusOK, env.get("/api/notes").Code)
}
