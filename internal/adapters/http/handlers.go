package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"academy/internal/adapters/http/middleware"
	"academy/internal/application/display"
	"academy/internal/application/listview"
	"academy/internal/domain/field"
)

//go:embed templates/*.html
var templateFS embed.FS

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err)
	}
}

// orNA renders any value, substituting the placeholder for empty output.
func orNA(v any) string {
	if v == nil {
		return display.Placeholder
	}
	s := fmt.Sprint(v)
	if s == "" {
		return display.Placeholder
	}
	return s
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	sess, signedIn := middleware.GetSessionFromContext(r.Context())

	funcMap := template.FuncMap{
		"isLoggedIn":   func() bool { return signedIn },
		"currentActor": func() string { return sess.Subject },
		"csrfField":    func() template.HTML { return csrf.TemplateField(r) },
		"na":           orNA,
		"date":         func(d field.Date) string { return options.Formatter.Date(d) },
		"link": func(pageID, search, view string) template.URL {
			return template.URL("?" + listview.Link(pageID, search, view))
		},
		"closeLink": func(pageID, search string) template.URL {
			q := listview.Link(pageID, search, "")
			if q != "" {
				q += "&"
			}
			return template.URL("?" + q + listview.ParamClose + "=1")
		},
		"inc": func(i int) int { return i + 1 },
		// Sources are pre-validated as http(s) or data:image URIs.
		"imgSrc": func(src string) template.URL { return template.URL(src) },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, fmt.Errorf("parse template %s: %w", templateName, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.Execute(w, data); err != nil {
		slog.Error("render_failed", "template", templateName, "error", err)
	}
}

// clientMeta returns the request details recorded in audit events.
func clientMeta(r *http.Request) (ip, userAgent string) {
	return middleware.ClientIP(r), r.UserAgent()
}

// actorID returns the signed-in subject, or "anonymous".
func actorID(r *http.Request) string {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		return sess.Subject
	}
	return "anonymous"
}

// fetchNotice returns the text shown when a list failed to load, if enabled.
func fetchNotice(err error) string {
	if err == nil || !options.ShowFetchErrors {
		return ""
	}
	return "The list could not be loaded. Check the backend and sign in again if needed."
}
