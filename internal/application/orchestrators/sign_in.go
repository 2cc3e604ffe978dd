package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"academy/internal/domain/audit"
)

var (
	ErrTokenRequired  = errors.New("a backend token is required")
	ErrTokenMalformed = errors.New("the token is not a valid JWT")
	ErrTokenExpired   = errors.New("the token has expired")
)

// CredentialStoreForSignIn defines the store interface needed by SignIn and SignOut.
type CredentialStoreForSignIn interface {
	Put(ctx context.Context, name, token string) error
	Delete(ctx context.Context, name string) error
}

// AuditStoreForSignIn defines the audit store interface needed by SignIn and SignOut.
type AuditStoreForSignIn interface {
	Save(ctx context.Context, event audit.Event) error
}

// SignInInput carries the pasted backend token and request context for auditing.
// SessionID scopes the stored token to one console session.
type SignInInput struct {
	Token     string
	SessionID string
	IPAddress string
	UserAgent string
}

// SignOutInput names the session whose token is removed.
type SignOutInput struct {
	ActorID   string
	SessionID string
}

// SignInResult carries what the console shows about the signed-in operator.
type SignInResult struct {
	Subject   string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// SignInDeps holds dependencies for SignIn and SignOut.
type SignInDeps struct {
	Credentials    CredentialStoreForSignIn
	AuditStore     AuditStoreForSignIn // optional
	CredentialName string
	Now            func() time.Time // defaults to time.Now
}

// CredentialKey names the credential held for one session.
// An empty sessionID yields the shared base name.
func CredentialKey(base, sessionID string) string {
	if sessionID == "" {
		return base
	}
	return base + ":" + sessionID
}

// ExecuteSignIn inspects a backend-issued bearer token and stores it as the
// session's credential. The signature is not verified.
// PRE: deps.Credentials is non-nil; deps.CredentialName is non-empty
// POST: on success the token is stored under CredentialKey(deps.CredentialName, input.SessionID)
// INVARIANT: a malformed or expired token is never stored
func ExecuteSignIn(ctx context.Context, input SignInInput, deps SignInDeps) (SignInResult, error) {
	fields := strings.Fields(input.Token)
	if len(fields) > 0 && strings.EqualFold(fields[0], "bearer") {
		fields = fields[1:]
	}
	raw := strings.Join(fields, "")
	if raw == "" {
		return SignInResult{}, ErrTokenRequired
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		slog.Info("auth_event", "event", "sign_in_failed", "reason", "malformed")
		return SignInResult{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	if !claims.VerifyExpiresAt(now().Unix(), false) {
		slog.Info("auth_event", "event", "sign_in_failed", "reason", "expired")
		return SignInResult{}, ErrTokenExpired
	}

	result := SignInResult{Subject: tokenSubject(claims)}
	if exp, ok := claims["exp"].(float64); ok {
		result.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}

	key := CredentialKey(deps.CredentialName, input.SessionID)
	if err := deps.Credentials.Put(ctx, key, raw); err != nil {
		return SignInResult{}, fmt.Errorf("store credential: %w", err)
	}

	slog.Info("auth_event", "event", "sign_in_success", "subject", result.Subject)
	recordAudit(ctx, deps.AuditStore, audit.NewEvent(result.Subject, audit.CategoryCredential, audit.ActionStore).
		WithResource("credential", key).
		WithRequest(input.IPAddress, input.UserAgent))
	return result, nil
}

// ExecuteSignOut deletes the session's stored credential.
// Credentials held for other sessions are untouched.
// PRE: deps.Credentials is non-nil
// POST: no credential is stored under CredentialKey(deps.CredentialName, input.SessionID)
func ExecuteSignOut(ctx context.Context, input SignOutInput, deps SignInDeps) error {
	key := CredentialKey(deps.CredentialName, input.SessionID)
	if err := deps.Credentials.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	slog.Info("auth_event", "event", "sign_out", "subject", input.ActorID)
	recordAudit(ctx, deps.AuditStore, audit.NewEvent(input.ActorID, audit.CategoryCredential, audit.ActionDelete).
		WithResource("credential", key))
	return nil
}

// tokenSubject picks a display identity from common claim names.
func tokenSubject(claims jwt.MapClaims) string {
	for _, key := range []string{"sub", "email", "id", "_id"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return "admin"
}

func recordAudit(ctx context.Context, store AuditStoreForSignIn, event audit.Event) {
	if store == nil {
		return
	}
	if err := store.Save(ctx, event); err != nil {
		slog.Error("audit_save_failed", "category", event.Category, "action", event.Action, "error", err)
	}
}
