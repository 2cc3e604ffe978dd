package achievement

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"academy/internal/domain/field"
)

// ErrNoCertificate is returned when a record carries no certificate image.
var ErrNoCertificate = errors.New("achievement has no certificate")

// StudentRef is the denormalized student reference embedded in an achievement.
type StudentRef struct {
	ID          string `json:"_id"`
	StudentName string `json:"studentName"`
}

// UnmarshalJSON accepts a populated object, a bare id string or null.
func (r *StudentRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = StudentRef{ID: id}
		return nil
	}
	type plain StudentRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = StudentRef(p)
	return nil
}

// Achievement is a recognition record linked to a student.
type Achievement struct {
	ID          string      `json:"_id"`
	Student     *StudentRef `json:"studentId"`
	EventName   field.Text  `json:"eventName"`
	EventDate   field.Date  `json:"eventDate"`
	Rank        field.Text  `json:"rank"`
	Place       field.Text  `json:"place"`
	State       field.Text  `json:"state"`
	EventType   field.Text  `json:"eventtype"`
	Location    field.Text  `json:"location"`
	Certificate string      `json:"certificate"`
}

// Key returns the stable identity of the achievement.
func (a Achievement) Key() string {
	return a.ID
}

// StudentName returns the referenced student's name.
// The boolean is false when the reference or its name is absent.
// INVARIANT: never panics on a nil reference
func (a Achievement) StudentName() (string, bool) {
	if a.Student == nil || a.Student.StudentName == "" {
		return "", false
	}
	return a.Student.StudentName, true
}

// HasCertificate reports whether a certificate image is attached.
func (a Achievement) HasCertificate() bool {
	return strings.TrimSpace(a.Certificate) != ""
}

// CertificateBytes decodes the base64 certificate.
// A leading data URI header ("data:image/...;base64,") is tolerated.
// PRE: none
// POST: returns decoded bytes, ErrNoCertificate, or a decode error
func (a Achievement) CertificateBytes() ([]byte, error) {
	raw := strings.TrimSpace(a.Certificate)
	if raw == "" {
		return nil, ErrNoCertificate
	}
	if strings.HasPrefix(raw, "data:") {
		if i := strings.Index(raw, ","); i >= 0 {
			raw = raw[i+1:]
		}
	}
	raw = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, raw)
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(raw, "="))
	}
	return data, err
}

// CertificateDataURI returns an inline image source for the certificate,
// or "" when there is none. JPEG is assumed when the bytes cannot be sniffed.
func (a Achievement) CertificateDataURI() string {
	raw := strings.TrimSpace(a.Certificate)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "data:image/") {
		return raw
	}
	mime := "image/jpeg"
	if data, err := a.CertificateBytes(); err == nil {
		if ct := http.DetectContentType(data); strings.HasPrefix(ct, "image/") {
			mime = ct
		}
	}
	return "data:" + mime + ";base64," + raw
}
