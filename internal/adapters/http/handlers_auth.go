package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"academy/internal/adapters/http/middleware"
	"academy/internal/application/orchestrators"
)

type loginRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	Subject   string     `json:"subject"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func signInDeps() orchestrators.SignInDeps {
	return orchestrators.SignInDeps{
		Credentials:    stores.CredentialStore,
		AuditStore:     stores.AuditStore,
		CredentialName: options.CredentialName,
	}
}

// handleLogin handles GET (form) and POST (store token) for /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, "/admin/students", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "login.html", map[string]any{})
		return
	}

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	isJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
	var token string
	if isJSON {
		var req loginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		token = req.Token
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		token = r.FormValue("token")
	}

	ip, ua := clientMeta(r)
	sessionID := middleware.NewSessionID()
	result, err := orchestrators.ExecuteSignIn(r.Context(), orchestrators.SignInInput{
		Token:     token,
		SessionID: sessionID,
		IPAddress: ip,
		UserAgent: ua,
	}, signInDeps())
	if err != nil {
		if !isUserError(err) {
			internalError(w, err)
			return
		}
		if isJSON {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": userMessage(err)})
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		renderTemplate(w, r, "login.html", map[string]any{"Error": userMessage(err)})
		return
	}

	sessionToken, err := sessions.Create(sessionID, result.Subject, result.ExpiresAt)
	if err != nil {
		internalError(w, err)
		return
	}
	sess, _ := sessions.Get(sessionToken)
	middleware.SetSessionCookie(w, sessionToken, sess.ExpiresAt)

	if isJSON {
		resp := loginResponse{Subject: result.Subject}
		if !result.ExpiresAt.IsZero() {
			resp.ExpiresAt = &result.ExpiresAt
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}
	http.Redirect(w, r, "/admin/students", http.StatusSeeOther)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		err := orchestrators.ExecuteSignOut(r.Context(), orchestrators.SignOutInput{
			ActorID:   sess.Subject,
			SessionID: sess.ID,
		}, signInDeps())
		if err != nil {
			internalError(w, err)
			return
		}
	}

	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isUserError(err error) bool {
	return errors.Is(err, orchestrators.ErrTokenRequired) ||
		errors.Is(err, orchestrators.ErrTokenMalformed) ||
		errors.Is(err, orchestrators.ErrTokenExpired)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, orchestrators.ErrTokenRequired):
		return orchestrators.ErrTokenRequired.Error()
	case errors.Is(err, orchestrators.ErrTokenMalformed):
		return orchestrators.ErrTokenMalformed.Error()
	case errors.Is(err, orchestrators.ErrTokenExpired):
		return orchestrators.ErrTokenExpired.Error()
	}
	return "sign-in failed"
}
