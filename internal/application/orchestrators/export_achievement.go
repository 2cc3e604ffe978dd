package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"academy/internal/adapters/pdf"
	"academy/internal/application/display"
	"academy/internal/domain/achievement"
	"academy/internal/domain/audit"
)

// AchievementTitle heads both the detail modal and the exported document.
const AchievementTitle = "Achievement Details"

// FilenameSuffix is appended to the student name to form the download name.
const FilenameSuffix = "_Achievement.pdf"

// ErrNoBuilder is returned when the deps carry no document factory.
var ErrNoBuilder = errors.New("export: no document builder configured")

// AuditStoreForExport defines the store interface needed by ExportAchievement.
type AuditStoreForExport interface {
	Save(ctx context.Context, event audit.Event) error
}

// ExportAchievementInput carries the record to export and request context for auditing.
type ExportAchievementInput struct {
	Achievement achievement.Achievement
	ActorID     string
	IPAddress   string
	UserAgent   string
}

// ExportAchievementResult carries the rendered document.
type ExportAchievementResult struct {
	Filename     string
	Document     []byte
	ImageOmitted bool // a certificate was present but could not be embedded
}

// ExportAchievementDeps holds dependencies for ExportAchievement.
type ExportAchievementDeps struct {
	NewBuilder pdf.Factory
	AuditStore AuditStoreForExport // optional
	Formatter  display.Formatter
}

// AchievementLines returns the labeled lines of an achievement document in order.
// POST: exactly eight lines; absent values render as display.Placeholder
func AchievementLines(a achievement.Achievement, f display.Formatter) []string {
	name, _ := a.StudentName()
	return []string{
		display.Line("Student Name", name),
		display.Line("Event Name", a.EventName),
		"Event Date: " + f.Date(a.EventDate),
		display.Line("Rank", a.Rank),
		display.Line("Place", a.Place),
		display.Line("State", a.State),
		display.Line("Event Type", a.EventType),
		display.Line("Location", a.Location),
	}
}

// AchievementFilename returns "<student name>_Achievement.pdf".
// A missing name becomes display.Placeholder; path separators and control
// characters are then replaced with "_", so a missing name yields "N_A_Achievement.pdf".
func AchievementFilename(a achievement.Achievement) string {
	name, _ := a.StudentName()
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, display.NA(name))
	return name + FilenameSuffix
}

// ExecuteExportAchievement renders an achievement as a one-page document.
// PRE: deps.NewBuilder is non-nil
// POST: Document holds the saved document; an unusable certificate is logged and
//
//	omitted rather than failing the export; an audit event is written when
//	deps.AuditStore is set, and audit failure is logged only.
//
// INVARIANT: the input record is never modified
func ExecuteExportAchievement(ctx context.Context, input ExportAchievementInput, deps ExportAchievementDeps) (ExportAchievementResult, error) {
	if deps.NewBuilder == nil {
		return ExportAchievementResult{}, ErrNoBuilder
	}
	a := input.Achievement
	result := ExportAchievementResult{Filename: AchievementFilename(a)}

	b := deps.NewBuilder()
	b.AddTitle(AchievementTitle)
	for _, line := range AchievementLines(a, deps.Formatter) {
		b.AddLine(line)
	}

	if a.HasCertificate() {
		data, err := a.CertificateBytes()
		if err == nil {
			err = b.AddImage(data)
		}
		if err != nil {
			result.ImageOmitted = true
			slog.Warn("export_image_omitted", "achievement_id", a.ID, "error", err)
		}
	}

	var buf bytes.Buffer
	if err := b.Save(&buf); err != nil {
		return ExportAchievementResult{}, fmt.Errorf("export achievement %s: %w", a.ID, err)
	}
	result.Document = buf.Bytes()

	slog.Info("export_event", "event", "achievement_pdf", "achievement_id", a.ID, "filename", result.Filename, "bytes", len(result.Document), "image_omitted", result.ImageOmitted)

	event := audit.NewEvent(input.ActorID, audit.CategoryExport, audit.ActionDownload).
		WithResource("achievement", a.ID).
		WithDescription(result.Filename).
		WithRequest(input.IPAddress, input.UserAgent)
	if result.ImageOmitted {
		event = event.WithSeverity(audit.SeverityWarning).WithMetadata(`{"image_omitted":true}`)
	}
	recordAudit(ctx, deps.AuditStore, event)

	return result, nil
}
