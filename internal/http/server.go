package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"moneyflow/internal/cache"
	"moneyflow/internal/core"
	applog "moneyflow/internal/log"
	"moneyflow/internal/middleware/ratelimit"
	"moneyflow/internal/middleware/security"
	"moneyflow/internal/middleware/trace"
	"moneyflow/internal/services"
	"moneyflow/internal/stats"
	appweb "moneyflow/web"
)

const (
	reportTTL            = 5 * time.Minute
	cacheCleanupInterval = 10 * time.Minute
	readyTimeout         = 5 * time.Second
	staticMaxAge         = 3600
)

// Deps are the services the server exposes.
type Deps struct {
	Transactions *services.TransactionService
	Goals        *services.GoalService
	Notes        *services.NoteService
	Backup       *services.BackupService
	// Changes fires after every transaction write, import and clear.
	Changes *services.Changes
	// Ping reports whether the store is usable; nil means always ready.
	Ping     func(context.Context) error
	Currency string
	Logger   *applog.Logger
}

type Server struct {
	http.Server

	txs      *services.TransactionService
	goals    *services.GoalService
	notes    *services.NoteService
	backup   *services.BackupService
	ping     func(context.Context) error
	currency string

	logger    *applog.Logger
	slog      *applog.StructuredLogger
	templates map[string]*template.Template

	// Reports are cached per period; reportGen moves on every data change
	// so a report computed across a write is never stored.
	reports   *cache.LRU[stats.Report]
	reportGen atomic.Int64
	caches    *cache.Manager

	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	clientIP        *security.ClientIPResolver

	appMetrics struct {
		uptime              time.Time
		transactionsCreated atomic.Int64
		goalsCreated        atomic.Int64
		backupsRequested    atomic.Int64
		imports             atomic.Int64
	}

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	currency := deps.Currency
	if currency == "" {
		currency = core.DefaultCurrency
	}

	s := &Server{
		txs:         deps.Transactions,
		goals:       deps.Goals,
		notes:       deps.Notes,
		backup:      deps.Backup,
		ping:        deps.Ping,
		currency:    currency,
		logger:      logger,
		slog:        applog.NewStructuredLogger(logger),
		reports:     cache.NewLRU[stats.Report](len(core.Periods()), reportTTL),
		caches:      cache.NewManager(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		clientIP:    security.NewClientIPResolver(),
	}
	s.appMetrics.uptime = time.Now()

	templates, err := loadTemplates(appweb.TemplatesFS, s.templateFuncs())
	if err != nil {
		s.rateLimiter.Stop()
		return nil, fmt.Errorf("load templates: %w", err)
	}
	s.templates = templates

	staticFS, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		s.rateLimiter.Stop()
		return nil, fmt.Errorf("static assets: %w", err)
	}

	s.caches.Register("reports", s.reports)
	s.caches.StartCleanup(cacheCleanupInterval)
	deps.Changes.Subscribe(s.invalidateReports)

	s.traceMiddleware = trace.NewMiddleware(logger, s.clientIP.ClientIP)

	mux := http.NewServeMux()
	s.routes(mux, staticFS)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.clientIP.ClientIP, s.handleRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = applog.Middleware(logger, trace.GetRequestID)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux, staticFS fs.FS) {
	mux.Handle("/static/", security.StaticAssetMiddleware(staticMaxAge)(
		http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))))

	// Pages
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/statistics", s.handleStatistics)
	mux.HandleFunc("/plans", s.handlePlans)
	mux.HandleFunc("/info", s.handleInfo)

	// Transactions
	mux.HandleFunc("/transactions", s.handleCreateTransaction)
	mux.HandleFunc("/transactions/delete", s.handleDeleteTransaction)
	mux.HandleFunc("/api/transactions", s.handleListTransactions)
	mux.HandleFunc("/api/stats", s.handleStatsAPI)

	// Goals
	mux.HandleFunc("/goals", s.handleCreateGoal)
	mux.HandleFunc("/goals/contribute", s.handleContributeGoal)
	mux.HandleFunc("/goals/delete", s.handleDeleteGoal)
	mux.HandleFunc("/api/goals", s.handleGoalsAPI)

	// Tips, calculators and notes
	mux.HandleFunc("/api/tips", s.handleTips)
	mux.HandleFunc("/api/calc/savings", s.handleCalcSavings)
	mux.HandleFunc("/api/calc/loan", s.handleCalcLoan)
	mux.HandleFunc("/api/calc/investment", s.handleCalcInvestment)
	mux.HandleFunc("/api/calc/goal", s.handleCalcGoal)
	mux.HandleFunc("/api/notes", s.handleNotes)
	mux.HandleFunc("/api/quick-notes", s.handleQuickNotes)
	mux.HandleFunc("/api/quick-notes/toggle", s.handleToggleQuickNote)
	mux.HandleFunc("/api/quick-notes/delete", s.handleDeleteQuickNote)

	// Backup
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/import", s.handleImport)
	mux.HandleFunc("/api/clear", s.handleClear)
	mux.HandleFunc("/api/backup", s.handleRequestBackup)

	// Operations
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) invalidateReports() {
	s.reportGen.Add(1)
	s.reports.Purge()
}

// report returns the statistics for period, from cache when fresh.
func (s *Server) report(ctx context.Context, period core.Period) (stats.Report, error) {
	key := string(period)
	if r, ok := s.reports.Get(key); ok {
		return r, nil
	}
	gen := s.reportGen.Load()
	r, err := s.txs.Report(ctx, period)
	if err != nil {
		return stats.Report{}, err
	}
	if s.reportGen.Load() == gen {
		s.reports.Set(key, r)
	}
	return r, nil
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	const msg = "Too many requests, try again in a minute"
	if wantsJSON(r) {
		NewHTMXResponse().Status(http.StatusTooManyRequests).BodyJSON(errorBody{Error: msg}).Write(w)
		return
	}
	ErrorResponse(http.StatusTooManyRequests, msg).TriggerErrorNotification(msg).Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().BodyJSON(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks templates and the store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if len(s.templates) == 0 {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.ping != nil {
		if err := s.ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
			checks["store"] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	NewHTMXResponse().Status(httpStatus).BodyJSON(map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	reportStats := s.reports.Stats()

	w.WriteHeader(http.StatusOK)

	writeMetric(w, "http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	writeMetric(w, "http_requests_in_flight", "Requests currently being served", "gauge", traceMetrics.InFlight)
	writeMetric(w, "http_server_errors_total", "Responses with a 5xx status", "counter", traceMetrics.ServerErrors)
	writeMetric(w, "http_response_time_avg_microseconds", "Mean response time", "gauge", traceMetrics.AverageResponseTime)
	writeMetric(w, "transactions_created_total", "Transactions created through the UI or API", "counter", s.appMetrics.transactionsCreated.Load())
	writeMetric(w, "goals_created_total", "Savings goals created", "counter", s.appMetrics.goalsCreated.Load())
	writeMetric(w, "backup_requests_total", "Backup snapshots requested", "counter", s.appMetrics.backupsRequested.Load())
	writeMetric(w, "backup_imports_total", "Backups imported", "counter", s.appMetrics.imports.Load())
	writeMetric(w, "report_cache_hits_total", "Statistics served from cache", "counter", reportStats.Hits)
	writeMetric(w, "report_cache_misses_total", "Statistics computed from the store", "counter", reportStats.Misses)
	writeMetric(w, "report_cache_entries", "Cached statistics reports", "gauge", int64(reportStats.Size))
	writeMetric(w, "rate_limit_rejected_total", "Requests rejected by the rate limiter", "counter", rateLimitMetrics.Rejected)
	writeMetric(w, "active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", int64(rateLimitMetrics.ClientCount))
	writeMetric(w, "uptime_seconds", "Application uptime in seconds", "gauge", int64(time.Since(s.appMetrics.uptime).Seconds()))
}

func writeMetric(w http.ResponseWriter, name, help, kind string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}

type errorBody struct {
	Error string `json:"error"`
}
