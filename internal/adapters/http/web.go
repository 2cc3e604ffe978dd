package web

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"academy/internal/adapters/http/middleware"
	"academy/internal/adapters/http/perf"
	"academy/internal/adapters/pdf"
	auditStore "academy/internal/adapters/storage/audit"
	"academy/internal/application/display"
	"academy/internal/application/listview"
	"academy/internal/application/orchestrators"
	"academy/internal/domain/achievement"
	"academy/internal/domain/student"
)

// Backend is the academy API the console reads from.
type Backend interface {
	ListStudents(ctx context.Context) ([]student.Student, error)
	ListAchievements(ctx context.Context) ([]achievement.Achievement, error)
}

// Stores holds local storage dependencies.
type Stores struct {
	CredentialStore orchestrators.CredentialStoreForSignIn
	AuditStore      auditStore.Store
}

// Options carries console settings resolved from config.
type Options struct {
	CSRFKey         []byte // 32 bytes; empty generates a per-process key
	Secure          bool   // HTTPS deployment: Secure cookies and strict CSRF origin checks
	TrustedOrigins  []string
	CredentialName  string
	SessionTTL      time.Duration
	PageTTL         time.Duration
	MaxPages        int
	ShowFetchErrors bool
	Formatter       display.Formatter
	SlowRequestMs   int
	NewBuilder      pdf.Factory
}

// Global backend client (set by NewMux)
var backend Backend

// Global stores instance (set by NewMux)
var stores *Stores

// Global console options (set by NewMux)
var options Options

// Global session store instance
var sessions *middleware.SessionStore

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Live page activations, one registry per list page.
var (
	studentPages     *listview.Registry[student.Student]
	achievementPages *listview.Registry[achievement.Achievement]
)

// SessionSweepInterval controls how often expired sessions and their credentials are removed.
var SessionSweepInterval = time.Minute

// SessionCredentialKey returns a key function for credential.Source that
// names the credential of the session in ctx, or "" outside a session.
func SessionCredentialKey(name string) func(ctx context.Context) string {
	return func(ctx context.Context) string {
		sess, ok := middleware.GetSessionFromContext(ctx)
		if !ok || sess.ID == "" {
			return ""
		}
		return orchestrators.CredentialKey(name, sess.ID)
	}
}

// forgetSession drops the credential of an expired session.
func forgetSession(deps orchestrators.SignInDeps) func(middleware.Session) {
	return func(sess middleware.Session) {
		err := orchestrators.ExecuteSignOut(context.Background(), orchestrators.SignOutInput{
			ActorID:   sess.Subject,
			SessionID: sess.ID,
		}, deps)
		if err != nil {
			slog.Error("session_sweep_failed", "session_id", sess.ID, "error", err)
		}
	}
}

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// csrfKey returns the configured key, or a random one for this process.
func csrfKey(configured []byte) ([]byte, error) {
	if len(configured) > 0 {
		if len(configured) != 32 {
			return nil, fmt.Errorf("csrf key must be 32 bytes, got %d", len(configured))
		}
		return configured, nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	slog.Warn("csrf_key_generated", "detail", "forms issued before a restart will be rejected")
	return key, nil
}

// NewMux wires HTTP handlers for the console.
// PRE: b and s are non-nil; s.CredentialStore is non-nil
// POST: package state is replaced; previously activated pages are dropped
func NewMux(b Backend, s *Stores, opts Options, collector *perf.Collector) (http.Handler, error) {
	key, err := csrfKey(opts.CSRFKey)
	if err != nil {
		return nil, err
	}
	if opts.CredentialName == "" {
		opts.CredentialName = "AdminToken"
	}
	if opts.NewBuilder == nil {
		opts.NewBuilder = pdf.NewFactory()
	}
	if opts.Formatter.Layout == "" {
		opts.Formatter = display.NewFormatter("", nil)
	}

	backend = b
	stores = s
	options = opts
	perfCollector = collector
	sessions = middleware.NewSessionStore(opts.SessionTTL)
	sessions.SweepEvery(SessionSweepInterval, forgetSession(signInDeps()))
	middleware.SecureCookies = opts.Secure
	studentPages = listview.NewRegistry[student.Student](student.Student.Name, opts.PageTTL, opts.MaxPages)
	achievementPages = listview.NewRegistry[achievement.Achievement](achievement.Achievement.StudentName, opts.PageTTL, opts.MaxPages)

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Recover -> Mux
	return middleware.Chain(mux,
		middleware.Recover,
		middleware.SecurityHeaders,
		middleware.CSRF(key, opts.Secure, opts.TrustedOrigins),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, opts.SlowRequestMs),
	), nil
}
