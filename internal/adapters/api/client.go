// Package api is the client for the academy backend's admin endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"academy/internal/domain/achievement"
	"academy/internal/domain/student"
)

// Backend paths.
const (
	StudentsPath     = "/api/admin/students"
	AchievementsPath = "/api/admin/achievements"
)

// maxBodyBytes caps the size of a list response.
const maxBodyBytes = 32 << 20

var (
	// ErrNoCredential is returned when no bearer token is available.
	// No request is sent in that case.
	ErrNoCredential = errors.New("api: no credential available")
	// ErrUnauthorized wraps 401 and 403 responses.
	ErrUnauthorized = errors.New("api: unauthorized")
)

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: %s returned %d %s", e.Path, e.Code, http.StatusText(e.Code))
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401/403 responses.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// TokenSource supplies the bearer token at call time.
// Implementations return ErrNoCredential (or an error wrapping it) when none is stored.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource holding a fixed token. An empty token reports ErrNoCredential.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoCredential
	}
	return string(s), nil
}

// Client reads admin lists from the backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
}

// NewClient creates a backend client.
// PRE: baseURL is an absolute http(s) URL; tokens is non-nil
// POST: a nil httpClient uses http.DefaultClient
func NewClient(baseURL string, httpClient *http.Client, tokens TokenSource) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("api: base url %q must be absolute http(s)", baseURL)
	}
	if tokens == nil {
		return nil, errors.New("api: token source is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: u, http: httpClient, tokens: tokens}, nil
}

type studentsEnvelope struct {
	Students []student.Student `json:"students"`
}

type achievementsEnvelope struct {
	Achievements []achievement.Achievement `json:"achievements"`
}

// ListStudents fetches the full student roster.
// POST: on success returns the records in backend order (possibly empty)
func (c *Client) ListStudents(ctx context.Context) ([]student.Student, error) {
	var env studentsEnvelope
	if err := c.getJSON(ctx, StudentsPath, &env); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return env.Students, nil
}

// ListAchievements fetches every achievement record.
// POST: on success returns the records in backend order (possibly empty)
func (c *Client) ListAchievements(ctx context.Context) ([]achievement.Achievement, error) {
	var env achievementsEnvelope
	if err := c.getJSON(ctx, AchievementsPath, &env); err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return env.Achievements, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		return ErrNoCredential
	}

	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{Path: path, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
