package web

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"academy/internal/application/display"
	"academy/internal/application/orchestrators"
	"academy/internal/domain/achievement"
)

// handleAchievements renders the achievement viewer (GET /admin/achievements)
// PRE: User must be signed in
// POST: Renders the filtered achievements and, when requested, the detail modal
func handleAchievements(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	view := servePage(r, achievementPages, backend.ListAchievements)

	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, toListResponse(view))
		return
	}

	data := map[string]any{
		"View":   view,
		"Notice": fetchNotice(view.LoadErr),
		"Title":  orchestrators.AchievementTitle,
	}
	if view.Visible {
		data["Details"] = achievementDetails(view.Selected)
		data["Certificate"] = view.Selected.CertificateDataURI()
	}
	renderTemplate(w, r, "achievements.html", data)
}

// achievementDetails splits the document lines into modal label/value pairs.
func achievementDetails(a achievement.Achievement) []display.Detail {
	lines := orchestrators.AchievementLines(a, options.Formatter)
	out := make([]display.Detail, 0, len(lines))
	for _, line := range lines {
		label, value, _ := strings.Cut(line, ": ")
		out = append(out, display.Detail{Label: label, Value: value})
	}
	return out
}

// handleAchievementPDF exports one achievement of a page activation as a PDF
// (GET /admin/achievements/pdf?page=&id=)
// PRE: User must be signed in
// POST: Streams the document as an attachment; the page's list and selection are untouched;
// no page activation is left behind for an unknown page
func handleAchievementPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	// An unknown page gets a one-off activation that does not outlive the export.
	page, fresh := achievementPages.Resolve(r.URL.Query().Get("page"))
	if fresh {
		defer achievementPages.Remove(page.ID())
	}
	if err := page.Load(context.WithoutCancel(r.Context()), backend.ListAchievements); err != nil && fresh {
		http.Error(w, "achievements could not be loaded", http.StatusBadGateway)
		return
	}
	rec, ok := page.Lookup(id)
	if !ok {
		http.Error(w, "achievement not found", http.StatusNotFound)
		return
	}

	ip, ua := clientMeta(r)
	result, err := orchestrators.ExecuteExportAchievement(r.Context(), orchestrators.ExportAchievementInput{
		Achievement: rec,
		ActorID:     actorID(r),
		IPAddress:   ip,
		UserAgent:   ua,
	}, orchestrators.ExportAchievementDeps{
		NewBuilder: options.NewBuilder,
		AuditStore: stores.AuditStore,
		Formatter:  options.Formatter,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Document)))
	if result.ImageOmitted {
		w.Header().Set("X-Certificate-Omitted", "true")
	}
	w.Write(result.Document)
}
