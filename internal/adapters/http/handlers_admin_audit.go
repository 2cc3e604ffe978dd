package web

import (
	"net/http"
	"strconv"
	"time"

	auditStore "academy/internal/adapters/storage/audit"
	auditDomain "academy/internal/domain/audit"
)

// handleAdminAuditTrail lists console audit events (GET /admin/audit)
// PRE: User must be signed in
// POST: Renders or returns audit events with optional filters, newest first
func handleAdminAuditTrail(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if stores.AuditStore == nil {
		http.Error(w, "audit trail not configured", http.StatusNotFound)
		return
	}

	filter := auditStore.Filter{}
	if category := r.URL.Query().Get("category"); category != "" {
		cat := auditDomain.Category(category)
		filter.Category = &cat
	}
	if action := r.URL.Query().Get("action"); action != "" {
		act := auditDomain.Action(action)
		filter.Action = &act
	}
	if resourceID := r.URL.Query().Get("resource_id"); resourceID != "" {
		filter.ResourceID = &resourceID
	}

	// Parse limit, default to 100
	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	events, err := stores.AuditStore.List(r.Context(), filter, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	if events == nil {
		events = []auditDomain.Event{}
	}

	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, events)
		return
	}
	renderTemplate(w, r, "audit.html", map[string]any{
		"Events": events,
		"Limit":  limit,
	})
}

// perfWindow is the default look-back for GET /admin/perf.
const perfWindow = 15 * time.Minute

// handleAdminPerf returns the perf snapshot as JSON (GET /admin/perf?window=15m)
// PRE: User must be signed in
// POST: Returns request, query and upstream timing aggregates
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if perfCollector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	window := perfWindow
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, "invalid window", http.StatusBadRequest)
			return
		}
		window = d
	}
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(time.Now().Add(-window), 10))
}

// handleHealthz reports liveness (GET /healthz)
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
