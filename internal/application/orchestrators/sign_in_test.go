package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"academy/internal/domain/audit"
)

type mockCredentials struct {
	stored  map[string]string
	putErr  error
	deleted []string
}

func newMockCredentials() *mockCredentials {
	return &mockCredentials{stored: map[string]string{}}
}

func (m *mockCredentials) Put(_ context.Context, name, token string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.stored[name] = token
	return nil
}

func (m *mockCredentials) Delete(_ context.Context, name string) error {
	delete(m.stored, name)
	m.deleted = append(m.deleted, name)
	return nil
}

var signInNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func signInDeps(creds *mockCredentials, store AuditStoreForSignIn) SignInDeps {
	return SignInDeps{
		Credentials:    creds,
		AuditStore:     store,
		CredentialName: "AdminToken",
		Now:            func() time.Time { return signInNow },
	}
}

// TestSignIn_StoresValidToken verifies a well-formed unexpired token is stored.
func TestSignIn_StoresValidToken(t *testing.T) {
	creds := newMockCredentials()
	store := &mockAuditStore{}
	exp := signInNow.Add(time.Hour)
	tok := signedToken(t, jwt.MapClaims{"id": "admin-1", "exp": exp.Unix()})

	res, err := ExecuteSignIn(context.Background(), SignInInput{Token: "  Bearer " + tok + "\n"}, signInDeps(creds, store))
	if err != nil {
		t.Fatalf("ExecuteSignIn: %v", err)
	}
	if creds.stored["AdminToken"] != tok {
		t.Errorf("stored = %q, want the bare token", creds.stored["AdminToken"])
	}
	if res.Subject != "admin-1" {
		t.Errorf("Subject = %q", res.Subject)
	}
	if !res.ExpiresAt.Equal(exp.Truncate(time.Second)) {
		t.Errorf("ExpiresAt = %v, want %v", res.ExpiresAt, exp)
	}
	if len(store.events) != 1 || store.events[0].Category != audit.CategoryCredential || store.events[0].Action != audit.ActionStore {
		t.Errorf("audit events = %+v", store.events)
	}
}

// TestSignIn_NoExpiry verifies tokens without exp are accepted.
func TestSignIn_NoExpiry(t *testing.T) {
	creds := newMockCredentials()
	res, err := ExecuteSignIn(context.Background(), SignInInput{Token: signedToken(t, jwt.MapClaims{"sub": "ops"})}, signInDeps(creds, nil))
	if err != nil {
		t.Fatalf("ExecuteSignIn: %v", err)
	}
	if !res.ExpiresAt.IsZero() || res.Subject != "ops" {
		t.Errorf("result = %+v", res)
	}
}

// TestSignIn_Rejects verifies bad tokens are never stored.
func TestSignIn_Rejects(t *testing.T) {
	expired := signedToken(t, jwt.MapClaims{"exp": signInNow.Add(-time.Minute).Unix()})
	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "   ", ErrTokenRequired},
		{"bearerOnly", "Bearer ", ErrTokenRequired},
		{"garbage", "not-a-jwt", ErrTokenMalformed},
		{"expired", expired, ErrTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := newMockCredentials()
			_, err := ExecuteSignIn(context.Background(), SignInInput{Token: tt.token}, signInDeps(creds, nil))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if len(creds.stored) != 0 {
				t.Errorf("token stored despite rejection")
			}
		})
	}
}

// TestSignIn_StoreFailure verifies persistence errors are returned.
func TestSignIn_StoreFailure(t *testing.T) {
	creds := newMockCredentials()
	creds.putErr = errors.New("disk full")
	_, err := ExecuteSignIn(context.Background(), SignInInput{Token: signedToken(t, jwt.MapClaims{})}, signInDeps(creds, nil))
	if !errors.Is(err, creds.putErr) {
		t.Errorf("err = %v, want %v", err, creds.putErr)
	}
}

// TestSignIn_ScopedToSession verifies each session's token is stored under its own key.
func TestSignIn_ScopedToSession(t *testing.T) {
	creds := newMockCredentials()
	alice := signedToken(t, jwt.MapClaims{"sub": "alice"})
	bob := signedToken(t, jwt.MapClaims{"sub": "bob"})
	deps := signInDeps(creds, nil)

	if _, err := ExecuteSignIn(context.Background(), SignInInput{Token: alice, SessionID: "s-alice"}, deps); err != nil {
		t.Fatalf("sign in alice: %v", err)
	}
	if _, err := ExecuteSignIn(context.Background(), SignInInput{Token: bob, SessionID: "s-bob"}, deps); err != nil {
		t.Fatalf("sign in bob: %v", err)
	}
	if creds.stored["AdminToken:s-alice"] != alice || creds.stored["AdminToken:s-bob"] != bob {
		t.Errorf("stored = %v", creds.stored)
	}
	if _, ok := creds.stored["AdminToken"]; ok {
		t.Error("token stored under the shared name")
	}
}

// TestSignOut verifies only the session's credential is deleted and audited.
func TestSignOut(t *testing.T) {
	creds := newMockCredentials()
	creds.stored["AdminToken:s1"] = "tok"
	creds.stored["AdminToken:s2"] = "other"
	store := &mockAuditStore{}
	if err := ExecuteSignOut(context.Background(), SignOutInput{ActorID: "admin-1", SessionID: "s1"}, signInDeps(creds, store)); err != nil {
		t.Fatalf("ExecuteSignOut: %v", err)
	}
	if _, ok := creds.stored["AdminToken:s1"]; ok {
		t.Error("credential still stored")
	}
	if creds.stored["AdminToken:s2"] != "other" {
		t.Error("another session's credential was deleted")
	}
	if len(store.events) != 1 || store.events[0].Action != audit.ActionDelete || store.events[0].ResourceID != "AdminToken:s1" {
		t.Errorf("audit events = %+v", store.events)
	}
}

// TestCredentialKey verifies session scoping of credential names.
func TestCredentialKey(t *testing.T) {
	if got := CredentialKey("AdminToken", "abc"); got != "AdminToken:abc" {
		t.Errorf("CredentialKey = %q", got)
	}
	if got := CredentialKey("AdminToken", ""); got != "AdminToken" {
		t.Errorf("CredentialKey without session = %q", got)
	}
}

// TestTokenSubject verifies claim precedence and the fallback.
func TestTokenSubject(t *testing.T) {
	tests := []struct {
		claims jwt.MapClaims
		want   string
	}{
		{jwt.MapClaims{"sub": "s", "email": "e"}, "s"},
		{jwt.MapClaims{"email": "e@x", "id": "i"}, "e@x"},
		{jwt.MapClaims{"_id": "oid"}, "oid"},
		{jwt.MapClaims{"id": 42}, "admin"},
		{jwt.MapClaims{}, "admin"},
	}
	for _, tt := range tests {
		if got := tokenSubject(tt.claims); got != tt.want {
			t.Errorf("tokenSubject(%v) = %q, want %q", tt.claims, got, tt.want)
		}
	}
}
