package browser_test

import (
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
)

func rowCount(t *testing.T, page playwright.Page) int {
	t.Helper()
	n, err := page.Locator("tbody tr").Count()
	if err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}

// TestSmoke_Routes verifies the console pages load once signed in.
func TestSmoke_Routes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	app := newTestApp(t)
	page := app.newPage(t)

	resp, err := page.Goto(app.BaseURL + "/admin/students")
	if err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if !strings.HasSuffix(page.URL(), "/login") || resp.Status() != 200 {
		t.Errorf("anonymous visit landed on %s (%d)", page.URL(), resp.Status())
	}

	app.login(t, page)
	for _, path := range []string{"/admin/students", "/admin/achievements", "/admin/audit"} {
		resp, err := page.Goto(app.BaseURL + path)
		if err != nil {
			t.Fatalf("navigate %s: %v", path, err)
		}
		if resp.Status() != 200 {
			t.Errorf("%s status = %d", path, resp.Status())
		}
	}
}

// TestRoster_SearchAndDetail walks the roster: search, open a detail, close it.
func TestRoster_SearchAndDetail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	app := newTestApp(t)
	page := app.newPage(t)
	app.login(t, page)

	if n := rowCount(t, page); n != 2 {
		t.Fatalf("rows = %d, want 2", n)
	}

	search := page.Locator("input[name=q]")
	if err := search.Fill("asha"); err != nil {
		t.Fatalf("fill search: %v", err)
	}
	if err := search.Press("Enter"); err != nil {
		t.Fatalf("submit search: %v", err)
	}
	page.WaitForLoadState()
	if n := rowCount(t, page); n != 1 {
		t.Errorf("rows after 'asha' = %d, want 1", n)
	}

	if err := page.Locator("text=View Details").First().Click(); err != nil {
		t.Fatalf("open details: %v", err)
	}
	title, err := page.Locator("#modal-title").TextContent()
	if err != nil || title != "Asha Rao's Full Details" {
		t.Errorf("modal title = %q, err = %v", title, err)
	}
	body, _ := page.Locator(".modal .body").TextContent()
	if !strings.Contains(body, "Religion: N/A") {
		t.Errorf("modal body missing Religion: N/A")
	}

	if err := page.Locator(".modal footer >> text=Close").Click(); err != nil {
		t.Fatalf("close modal: %v", err)
	}
	page.WaitForLoadState()
	if n, _ := page.Locator(".modal").Count(); n != 0 {
		t.Error("modal still visible after close")
	}
	if v, _ := search.InputValue(); v != "asha" {
		t.Errorf("search after close = %q, want asha", v)
	}
}

// TestAchievements_DownloadPDF exports an achievement from its detail modal.
func TestAchievements_DownloadPDF(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	app := newTestApp(t)
	page := app.newPage(t)
	app.login(t, page)

	if _, err := page.Goto(app.BaseURL + "/admin/achievements"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if err := page.Locator("text=View Certificate").First().Click(); err != nil {
		t.Fatalf("open certificate: %v", err)
	}
	body, _ := page.Locator(".modal .body").TextContent()
	if !strings.Contains(body, "Rank: N/A") || !strings.Contains(body, "Event Date: 3/5/2024") {
		t.Errorf("modal body = %q", body)
	}

	download, err := page.ExpectDownload(func() error {
		return page.Locator("text=Download as PDF").Click()
	})
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if name := download.SuggestedFilename(); name != "Asha Rao_Achievement.pdf" {
		t.Errorf("filename = %q", name)
	}

	// The modal and list survive the export.
	if n, _ := page.Locator(".modal").Count(); n != 1 {
		t.Error("modal closed by export")
	}
}
