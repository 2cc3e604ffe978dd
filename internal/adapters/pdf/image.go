package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// MaxImagePixels bounds the longest side of an image embedded in a document.
const MaxImagePixels = 1200

// ErrEmptyImage is returned for zero-length image data.
var ErrEmptyImage = errors.New("pdf: empty image")

// Normalized is an image re-encoded as JPEG for embedding.
type Normalized struct {
	JPEG   []byte
	Width  int
	Height int
}

// NormalizeImage decodes data, applies EXIF orientation, flattens any
// transparency onto white, bounds it to MaxImagePixels and re-encodes it as JPEG.
// PRE: none
// POST: on success JPEG is a valid baseline JPEG no larger than MaxImagePixels on either side
func NormalizeImage(data []byte) (Normalized, error) {
	if len(data) == 0 {
		return Normalized{}, ErrEmptyImage
	}
	img, err := decodeImage(data)
	if err != nil {
		return Normalized{}, err
	}

	b := img.Bounds()
	if b.Dx() > MaxImagePixels || b.Dy() > MaxImagePixels {
		img = imaging.Fit(img, MaxImagePixels, MaxImagePixels, imaging.Lanczos)
		b = img.Bounds()
	}
	flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return Normalized{}, fmt.Errorf("pdf: encode jpeg: %w", err)
	}
	return Normalized{JPEG: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

func decodeImage(data []byte) (image.Image, error) {
	ct := http.DetectContentType(data)
	if strings.Contains(ct, "webp") {
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("pdf: decode webp: %w", err)
		}
		return img, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("pdf: decode %s: %w", ct, err)
	}
	return img, nil
}

// fitBox scales w×h to fit inside a box×box square, keeping the aspect ratio.
func fitBox(w, h int, box float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return box, box
	}
	if w >= h {
		return box, box * float64(h) / float64(w)
	}
	return box * float64(w) / float64(h), box
}
