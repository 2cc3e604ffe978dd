package display

import (
	"fmt"
	"time"

	"academy/internal/domain/field"
)

// Placeholder is substituted for any absent optional value.
const Placeholder = "N/A"

// DefaultDateLayout renders dates as month/day/year without padding.
const DefaultDateLayout = "1/2/2006"

// Or returns value, or placeholder when value is empty.
// PRE: none
// POST: result is never empty unless placeholder is empty
func Or[T ~string](value T, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return string(value)
}

// NA is Or with the standard placeholder.
func NA[T ~string](value T) string {
	return Or(value, Placeholder)
}

// Formatter renders dates in a fixed calendar layout and location.
type Formatter struct {
	Layout   string
	Location *time.Location
}

// NewFormatter returns a Formatter; empty layout and nil location use defaults.
func NewFormatter(layout string, loc *time.Location) Formatter {
	if layout == "" {
		layout = DefaultDateLayout
	}
	if loc == nil {
		loc = time.UTC
	}
	return Formatter{Layout: layout, Location: loc}
}

// Date renders d, or the placeholder when d is absent or unparseable.
func (f Formatter) Date(d field.Date) string {
	if !d.Valid {
		return Placeholder
	}
	layout := f.Layout
	if layout == "" {
		layout = DefaultDateLayout
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	return d.Time.In(loc).Format(layout)
}

// Line formats a labeled line ("Label: value") with placeholder fallback.
func Line[T ~string](label string, value T) string {
	return fmt.Sprintf("%s: %s", label, NA(value))
}
