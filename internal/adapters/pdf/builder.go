// Package pdf renders achievement documents.
package pdf

import "io"

// Page layout in millimetres on A4 portrait.
const (
	MarginX    = 10.0
	TitleY     = 10.0
	FirstLineY = 30.0
	LineStep   = 10.0
	ImageY     = 110.0
	ImageBox   = 100.0

	TitleFontSize = 18.0
	LineFontSize  = 12.0
)

// DocumentBuilder lays out a single-page document: a title, label lines
// and at most one image below them.
type DocumentBuilder interface {
	// AddTitle writes the heading at the top of the page.
	AddTitle(text string)

	// AddLine writes the next text line below the previous one.
	AddLine(text string)

	// AddImage places an encoded image (JPEG, PNG, GIF or WebP) in the image box.
	// On error the document is left unchanged and can still be saved.
	AddImage(data []byte) error

	// Save writes the finished document.
	Save(w io.Writer) error
}

// Factory creates a fresh builder for each document.
type Factory func() DocumentBuilder
