package pdf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const fontFamily = "Helvetica"

// GoFPDFBuilder is the DocumentBuilder backed by gofpdf.
type GoFPDFBuilder struct {
	doc    *gofpdf.Fpdf
	tr     func(string) string
	lineY  float64
	images int
}

// Ensure GoFPDFBuilder implements DocumentBuilder.
var _ DocumentBuilder = (*GoFPDFBuilder)(nil)

// NewGoFPDFBuilder starts an A4 portrait document with one page.
// POST: the next AddLine writes at FirstLineY
func NewGoFPDFBuilder() *GoFPDFBuilder {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCreator("academy", true)
	doc.AddPage()
	return &GoFPDFBuilder{
		doc:   doc,
		tr:    doc.UnicodeTranslatorFromDescriptor(""),
		lineY: FirstLineY,
	}
}

// NewFactory returns a Factory producing GoFPDFBuilders.
func NewFactory() Factory {
	return func() DocumentBuilder { return NewGoFPDFBuilder() }
}

// AddTitle writes text at (MarginX, TitleY) in TitleFontSize.
func (b *GoFPDFBuilder) AddTitle(text string) {
	b.doc.SetTitle(text, true)
	b.doc.SetFont(fontFamily, "", TitleFontSize)
	b.doc.Text(MarginX, TitleY, b.tr(text))
}

// AddLine writes text at the current line position and advances by LineStep.
func (b *GoFPDFBuilder) AddLine(text string) {
	b.doc.SetFont(fontFamily, "", LineFontSize)
	b.doc.Text(MarginX, b.lineY, b.tr(text))
	b.lineY += LineStep
}

// AddImage normalizes data and places it at (MarginX, ImageY) inside the
// ImageBox square, keeping its aspect ratio.
// POST: on error nothing is registered with the document
func (b *GoFPDFBuilder) AddImage(data []byte) error {
	img, err := NormalizeImage(data)
	if err != nil {
		return err
	}
	b.images++
	name := fmt.Sprintf("image-%d", b.images)
	opts := gofpdf.ImageOptions{ImageType: "JPG"}
	b.doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.JPEG))
	if err := b.doc.Error(); err != nil {
		return fmt.Errorf("pdf: register image: %w", err)
	}
	w, h := fitBox(img.Width, img.Height, ImageBox)
	b.doc.ImageOptions(name, MarginX, ImageY, w, h, false, opts, 0, "")
	return nil
}

// Save writes the document to w.
func (b *GoFPDFBuilder) Save(w io.Writer) error {
	if err := b.doc.Output(w); err != nil {
		return fmt.Errorf("pdf: output: %w", err)
	}
	return nil
}
