package pdf

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Recorder is a DocumentBuilder that records layout calls instead of
// rendering. Save writes a plain-text transcript.
type Recorder struct {
	Title    string
	Lines    []string
	Images   [][]byte
	ImageErr error // returned by AddImage when set
	SaveErr  error // returned by Save when set
}

// Ensure Recorder implements DocumentBuilder.
var _ DocumentBuilder = (*Recorder)(nil)

// AddTitle records the title.
func (r *Recorder) AddTitle(text string) { r.Title = text }

// AddLine records a line.
func (r *Recorder) AddLine(text string) { r.Lines = append(r.Lines, text) }

// AddImage records the image data unless ImageErr is set or data is empty.
func (r *Recorder) AddImage(data []byte) error {
	if r.ImageErr != nil {
		return r.ImageErr
	}
	if len(data) == 0 {
		return ErrEmptyImage
	}
	r.Images = append(r.Images, data)
	return nil
}

// Save writes "title\nline\n...\n[image N bytes]".
func (r *Recorder) Save(w io.Writer) error {
	if r.SaveErr != nil {
		return r.SaveErr
	}
	var sb strings.Builder
	sb.WriteString(r.Title + "\n")
	for _, l := range r.Lines {
		sb.WriteString(l + "\n")
	}
	for _, img := range r.Images {
		fmt.Fprintf(&sb, "[image %d bytes]\n", len(img))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// ErrRecorderSave is a ready-made Save failure for tests.
var ErrRecorderSave = errors.New("pdf: recorder save failed")
