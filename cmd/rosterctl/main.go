// Command rosterctl lists and searches the academy roster and achievements
// from a terminal, and exports achievement documents.
//
//	rosterctl students [-q text] [-id ID]
//	rosterctl achievements [-q text] [-id ID] [-pdf DIR]
//
// The admin token is read from ACADEMY_ADMIN_TOKEN.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"academy/internal/adapters/api"
	"academy/internal/adapters/pdf"
	"academy/internal/application/display"
	"academy/internal/application/listview"
	"academy/internal/application/orchestrators"
	"academy/internal/config"
	"academy/internal/domain/achievement"
	"academy/internal/domain/student"
)

// TokenEnv names the variable holding the admin token.
const TokenEnv = "ACADEMY_ADMIN_TOKEN"

var errUsage = errors.New("usage: rosterctl students|achievements [-q text] [-id ID] [-pdf DIR]")

// Backend is the part of the API client rosterctl needs.
type Backend interface {
	ListStudents(ctx context.Context) ([]student.Student, error)
	ListAchievements(ctx context.Context) ([]achievement.Achievement, error)
}

type options struct {
	query     string
	id        string
	pdfDir    string
	formatter display.Formatter
	builder   pdf.Factory
}

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load(os.LookupEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	client, err := api.NewClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.HTTPTimeout}, api.StaticToken(os.Getenv(TokenEnv)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	opts := options{formatter: cfg.Formatter(), builder: pdf.NewFactory()}
	os.Exit(run(context.Background(), os.Args[1:], client, opts, os.Stdout, os.Stderr))
}

// run executes one subcommand and returns the process exit code.
// A failed fetch is reported as a warning and an empty table, not an error.
func run(ctx context.Context, args []string, b Backend, opts options, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, errUsage)
		return 2
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.query, "q", "", "case-insensitive student name search")
	fs.StringVar(&opts.id, "id", "", "show the details of one record")
	if args[0] == "achievements" {
		fs.StringVar(&opts.pdfDir, "pdf", "", "export the record selected with -id into `DIR`")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	var err error
	switch args[0] {
	case "students":
		err = runStudents(ctx, b, opts, stdout, stderr)
	case "achievements":
		if opts.pdfDir != "" && opts.id == "" {
			fmt.Fprintln(stderr, "-pdf requires -id")
			return 2
		}
		err = runAchievements(ctx, b, opts, stdout, stderr)
	default:
		fmt.Fprintln(stderr, errUsage)
		return 2
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func warnFetch(w io.Writer, what string, err error) {
	color.New(color.FgYellow).Fprintf(w, "warning: %s could not be loaded: %v\n", what, err)
}

func runStudents(ctx context.Context, b Backend, opts options, stdout, stderr io.Writer) error {
	page := listview.NewPage[student.Student]("cli", student.Student.Name)
	if err := page.Load(ctx, b.ListStudents); err != nil {
		warnFetch(stderr, "students", err)
	}
	page.SetQuery(opts.query)

	if opts.id != "" {
		s, ok := page.Lookup(opts.id)
		if !ok {
			return fmt.Errorf("student %q not found", opts.id)
		}
		name, _ := s.Name()
		color.New(color.FgCyan, color.Bold).Fprintf(stdout, "%s's Full Details\n", display.NA(name))
		switch src := s.PhotoSource(); {
		case strings.HasPrefix(src, "data:"):
			fmt.Fprintln(stdout, "Photo: embedded image")
		case src != "":
			fmt.Fprintf(stdout, "Photo: %s\n", src)
		}
		writeDetails(stdout, display.StudentDetails(s, opts.formatter))
		return nil
	}

	view := page.Snapshot()
	color.New(color.FgCyan).Fprintf(stdout, "Student Details (%d of %d)\n", len(view.Rows), view.Total)
	table := tablewriter.NewWriter(stdout)
	table.SetHeader([]string{"#", "ID", "Name", "Phone", "Email", "Age", "Gender"})
	for i, s := range view.Rows {
		table.Append([]string{
			fmt.Sprint(i + 1),
			s.ID,
			display.NA(s.StudentName),
			display.NA(s.PhonePrimary),
			display.NA(s.Email),
			display.NA(s.Age),
			display.NA(s.Gender),
		})
	}
	table.Render()
	return nil
}

func runAchievements(ctx context.Context, b Backend, opts options, stdout, stderr io.Writer) error {
	page := listview.NewPage[achievement.Achievement]("cli", achievement.Achievement.StudentName)
	if err := page.Load(ctx, b.ListAchievements); err != nil {
		warnFetch(stderr, "achievements", err)
	}
	page.SetQuery(opts.query)

	if opts.id != "" {
		a, ok := page.Lookup(opts.id)
		if !ok {
			return fmt.Errorf("achievement %q not found", opts.id)
		}
		color.New(color.FgCyan, color.Bold).Fprintln(stdout, orchestrators.AchievementTitle)
		for _, line := range orchestrators.AchievementLines(a, opts.formatter) {
			fmt.Fprintln(stdout, line)
		}
		if opts.pdfDir != "" {
			return exportAchievement(ctx, a, opts, stdout)
		}
		return nil
	}

	view := page.Snapshot()
	color.New(color.FgCyan).Fprintf(stdout, "Achievements (%d of %d)\n", len(view.Rows), view.Total)
	table := tablewriter.NewWriter(stdout)
	table.SetHeader([]string{"#", "ID", "Student Name", "Event Name", "Event Date", "Rank"})
	for i, a := range view.Rows {
		name, _ := a.StudentName()
		table.Append([]string{
			fmt.Sprint(i + 1),
			a.ID,
			display.NA(name),
			display.NA(a.EventName),
			opts.formatter.Date(a.EventDate),
			display.NA(a.Rank),
		})
	}
	table.Render()
	return nil
}

func exportAchievement(ctx context.Context, a achievement.Achievement, opts options, stdout io.Writer) error {
	result, err := orchestrators.ExecuteExportAchievement(ctx, orchestrators.ExportAchievementInput{
		Achievement: a,
		ActorID:     "rosterctl",
	}, orchestrators.ExportAchievementDeps{
		NewBuilder: opts.builder,
		Formatter:  opts.formatter,
	})
	if err != nil {
		return err
	}
	path := filepath.Join(opts.pdfDir, result.Filename)
	if err := os.WriteFile(path, result.Document, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if result.ImageOmitted {
		color.New(color.FgYellow).Fprintln(stdout, "warning: certificate image could not be embedded")
	}
	color.New(color.FgGreen).Fprintf(stdout, "saved %s (%d bytes)\n", path, len(result.Document))
	return nil
}

func writeDetails(w io.Writer, details []display.Detail) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAutoWrapText(false)
	for _, d := range details {
		table.Append([]string{d.Label, d.Value})
	}
	table.Render()
}
