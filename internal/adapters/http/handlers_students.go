package web

import (
	"net/http"

	"academy/internal/application/display"
)

// handleStudents renders the roster viewer (GET /admin/students)
// PRE: User must be signed in
// POST: Renders the filtered roster and, when requested, the detail modal
func handleStudents(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	view := servePage(r, studentPages, backend.ListStudents)

	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, toListResponse(view))
		return
	}

	data := map[string]any{
		"View":   view,
		"Notice": fetchNotice(view.LoadErr),
	}
	if view.Visible {
		name, _ := view.Selected.Name()
		data["Title"] = orNA(name) + "'s Full Details"
		data["Photo"] = view.Selected.PhotoSource()
		data["Details"] = display.StudentDetails(view.Selected, options.Formatter)
	}
	renderTemplate(w, r, "students.html", data)
}
