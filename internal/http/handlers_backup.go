package http

import (
	"fmt"
	"net/http"
	"time"

	applog "moneyflow/internal/log"
	"moneyflow/internal/middleware/security"
	"moneyflow/internal/services"
)

// handleExport downloads the whole dataset as a JSON attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	b, err := s.backup.Export(r.Context())
	if err != nil {
		s.fail(w, r, err, applog.ComponentBackup, applog.OpExport)
		return
	}
	data, err := b.Encode()
	if err != nil {
		s.fail(w, r, err, applog.ComponentBackup, applog.OpExport)
		return
	}

	security.NoStore(w)
	NewHTMXResponse().
		Header("Content-Type", "application/json; charset=utf-8").
		Header("Content-Disposition", `attachment; filename="`+services.FileName(time.Now().UTC())+`"`).
		Body(data).
		Write(w)
}

// handleImport replaces every collection with the posted backup document.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, parseFailure(err), applog.ComponentBackup, applog.OpParse)
		return
	}
	if !p.IsJSON() {
		err := fmt.Errorf("%w: expected a JSON object, got %q", services.ErrInvalidBackup, p.ContentType())
		s.fail(w, r, err, applog.ComponentBackup, applog.OpImport)
		return
	}
	b, err := services.ParseBackup(p.GetRaw())
	if err != nil {
		s.fail(w, r, err, applog.ComponentBackup, applog.OpImport)
		return
	}
	if err := s.backup.Import(r.Context(), b); err != nil {
		s.fail(w, r, err, applog.ComponentBackup, applog.OpImport)
		return
	}
	s.appMetrics.imports.Add(1)

	summary := map[string]int{
		"transactions": len(b.Transactions),
		"goals":        len(b.Goals),
		"quickNotes":   len(b.QuickNotes),
	}
	resp := NewHTMXResponse().
		TriggerDataReplaced().
		TriggerSuccessNotification("Backup imported")
	s.finish(w, r, resp, summary, "/info")
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := s.backup.Clear(r.Context()); err != nil {
		s.fail(w, r, err, applog.ComponentBackup, applog.OpClear)
		return
	}
	resp := NewHTMXResponse().
		TriggerDataReplaced().
		TriggerNotification(NotificationWarning, "All data cleared", 4000)
	s.finish(w, r, resp, map[string]bool{"cleared": true}, "/")
}

// handleRequestBackup queues a server-side snapshot, or writes it straight
// away when no broker is configured.
func (s *Server) handleRequestBackup(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, parseFailure(err), applog.ComponentBackup, applog.OpParse)
		return
	}
	reason := p.Get("reason")
	if reason == "" {
		reason = "manual"
	}

	receipt, err := s.backup.RequestBackup(r.Context(), reason)
	if err != nil {
		s.fail(w, r, err, applog.ComponentBackup, applog.OpExport)
		return
	}
	s.appMetrics.backupsRequested.Add(1)

	status, msg := http.StatusCreated, "Backup written"
	if receipt.Queued {
		status, msg = http.StatusAccepted, "Backup queued"
	}
	resp := NewHTMXResponse().
		Status(status).
		TriggerSuccessNotification(msg)
	s.finish(w, r, resp, receipt, "/info")
}
