package web

import (
	"net/http"

	"academy/internal/adapters/http/middleware"
)

// registerRoutes wires console routes onto mux.
// Everything under /admin/ requires a signed-in session.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", handleHealthz)
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/logout", handleLogout)

	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(h)
	}
	mux.Handle("/admin/students", admin(handleStudents))
	mux.Handle("/admin/achievements", admin(handleAchievements))
	mux.Handle("/admin/achievements/pdf", admin(handleAchievementPDF))
	mux.Handle("/admin/audit", admin(handleAdminAuditTrail))
	mux.Handle("/admin/perf", admin(handleAdminPerf))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/admin/students", http.StatusSeeOther)
	})
}
