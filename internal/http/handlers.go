package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"debts/internal/core"
	"debts/internal/log"
)

type indexPage struct {
	Title  string
	Debts  []core.Debt
	Search string
}

type statsPage struct {
	Title string
	core.Stats
}

const pageTitle = "ניהול כסף"

// handleIndex renders the debt list, optionally filtered by ?search=.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	search := ParseSearch(r)

	debts, err := s.debts.ListDebts(r.Context(), search)
	if err != nil {
		s.internalError(w, r, "List debts failed", err, log.OpList)
		return
	}

	logger.DebugContext(r.Context(), "Debts listed", log.FieldSearch, search, "count", len(debts))
	s.render(w, r, "index.html", indexPage{Title: pageTitle, Debts: debts, Search: search})
}

// handleAdd charges an amount to a debt by name, creating it on first use.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	form, err := ParseAddForm(r)
	if err != nil {
		badRequest(w, r, "invalid amount", err)
		return
	}

	debt, created, err := s.debts.AddDebt(r.Context(), form.Name, form.Amount)
	if errors.Is(err, core.ErrEmptyName) {
		badRequest(w, r, "name is required", err)
		return
	}
	if err != nil {
		s.internalError(w, r, "Add debt failed", err, log.OpCreate)
		return
	}

	op := log.OpUpdate
	if created {
		op = log.OpCreate
	}
	s.structLog.LogDebtChanged(r.Context(), op, debt.ID, debt.Name, debt.RemainingAmount, string(core.ActionAdd), form.Amount)
	s.invalidateStats()
	redirectHome(w, r)
}

// handleUpdate applies add or subtract to an existing debt. Unknown ids
// redirect like a success.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	form, err := ParseUpdateForm(r)
	if err != nil {
		badRequest(w, r, "invalid amount or action", err)
		return
	}

	debt, found, err := s.debts.UpdateDebt(r.Context(), id, form.Action, form.Amount)
	if err != nil {
		s.internalError(w, r, "Update debt failed", err, log.OpUpdate)
		return
	}
	if found {
		s.structLog.LogDebtChanged(r.Context(), log.OpUpdate, debt.ID, debt.Name, debt.RemainingAmount, string(form.Action), form.Amount)
		s.invalidateStats()
	}
	redirectHome(w, r)
}

// handleDelete removes a debt. Unknown ids redirect like a success.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	found, err := s.debts.DeleteDebt(r.Context(), id)
	if err != nil {
		s.internalError(w, r, "Delete debt failed", err, log.OpDelete)
		return
	}
	if found {
		s.invalidateStats()
	}
	redirectHome(w, r)
}

// handleStats renders the aggregate page.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.getStats(r.Context())
	if err != nil {
		s.internalError(w, r, "Stats failed", err, log.OpStats)
		return
	}
	s.render(w, r, "stats.html", statsPage{Title: pageTitle, Stats: stats})
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.debts.Ping(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	metrics := s.traceMiddleware.GetMetrics()
	checks["requests"] = map[string]interface{}{
		"total":           metrics.TotalRequests,
		"failed":          metrics.FailedRequests,
		"avg_response_us": metrics.AverageResponseTime,
		"rejected":        s.guard.Rejected(),
	}
	checks["cache"] = map[string]interface{}{
		"stats_entries": s.statsCache.Size(),
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.structLog.LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.NewFields().WithRequestID(requestID(r)))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	s.structLog.LogError(r.Context(), msg, err, log.ComponentDebt, op,
		log.NewFields().WithRequestID(requestID(r)))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string, err error) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected form input",
		log.FieldPath, r.URL.Path, log.FieldError, err)
	http.Error(w, msg, http.StatusBadRequest)
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
