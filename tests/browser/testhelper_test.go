package browser_test

import (
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	"academy/internal/adapters/api"
	web "academy/internal/adapters/http"
	"academy/internal/adapters/http/perf"
	"academy/internal/adapters/storage"
	auditStore "academy/internal/adapters/storage/audit"
	"academy/internal/adapters/storage/credential"
)

const studentsFixture = `{"students":[
	{"_id":"1","studentName":"Asha Rao","phonePrimary":"555","email":"a@x.com","age":10,"gender":"F","religion":null},
	{"_id":"2","studentName":"Bhavna Shah","phonePrimary":"777","email":"b@x.com","age":12,"gender":"F"}]}`

const achievementsFixture = `{"achievements":[
	{"_id":"a1","studentId":{"_id":"1","studentName":"Asha Rao"},"eventName":"Nritya Utsav","eventDate":"2024-03-05T00:00:00.000Z","place":"Pune"}]}`

// testApp holds the running console, the fake academy backend and Playwright handles.
type testApp struct {
	BaseURL string
	Backend *httptest.Server
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
	Stores  *web.Stores
	Token   string
}

// newBackend serves the two admin list endpoints, requiring a bearer token.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/admin/students":
			w.Write([]byte(studentsFixture))
		case "/api/admin/achievements":
			w.Write([]byte(achievementsFixture))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newTestApp wires the console with a temp SQLite DB against a fake backend and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.MigrateDB(db, dbPath); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	sealer, err := credential.NewEphemeralSealer()
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}
	credentials := credential.NewSQLiteStore(db, sealer)
	stores := &web.Stores{
		CredentialStore: credentials,
		AuditStore:      auditStore.NewSQLiteStore(db),
	}

	backend := newBackend(t)
	collector := perf.NewCollector(0)
	client, err := api.NewClient(backend.URL, &http.Client{Transport: perf.NewTransport(nil, collector)},
		credential.Source{Store: credentials, Name: "AdminToken", Key: web.SessionCredentialKey("AdminToken")})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	web.RateLimitPerSecond = 1000
	mux, err := web.NewMux(client, stores, web.Options{
		TrustedOrigins: []string{fmt.Sprintf("127.0.0.1:%d", port), fmt.Sprintf("localhost:%d", port)},
	}, collector)
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "admin-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		Backend: backend,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
		Stores:  stores,
		Token:   token,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})

	return app
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// login pastes the admin token into the sign-in form.
func (a *testApp) login(t *testing.T, page playwright.Page) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("textarea[name=token]").Fill("Bearer " + a.Token); err != nil {
		t.Fatalf("failed to fill token: %v", err)
	}
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click sign in: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+"/admin/students**", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect to the roster: %v", err)
	}
}
