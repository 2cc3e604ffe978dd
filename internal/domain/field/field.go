package field

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Text is a display string decoded from a loosely typed JSON value.
// Strings are kept as-is, numbers and true keep their JSON spelling, arrays
// are joined with ", ". Falsy values (null, false, 0) decode to the empty
// string so they render as absent.
type Text string

// String returns the display value.
func (t Text) String() string {
	return string(t)
}

// IsZero reports whether the value is absent or empty.
func (t Text) IsZero() bool {
	return t == ""
}

// UnmarshalJSON accepts strings, numbers, booleans, null and arrays of those.
// PRE: data is a single JSON value
// POST: t holds the display form of the value
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '[':
		var parts []Text
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		vals := make([]string, 0, len(parts))
		for _, p := range parts {
			if p != "" {
				vals = append(vals, string(p))
			}
		}
		*t = Text(strings.Join(vals, ", "))
	case '{':
		// Objects have no display form.
		*t = ""
	default:
		if isFalsy(data) {
			*t = ""
			return nil
		}
		*t = Text(string(data))
	}
	return nil
}

// isFalsy reports whether a bare JSON literal is false or numerically zero.
func isFalsy(data []byte) bool {
	if bytes.Equal(data, []byte("false")) {
		return true
	}
	f, err := strconv.ParseFloat(string(data), 64)
	return err == nil && f == 0
}

// MarshalJSON writes the display value as a JSON string.
func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

// Date is a calendar timestamp that may be absent or unparseable.
type Date struct {
	Time  time.Time
	Valid bool
}

// dateLayouts are tried in order when decoding a date string.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses the backend's date representations.
// Returns an invalid Date for empty or unrecognised input.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t, Valid: true}
		}
	}
	return Date{}
}

// UnmarshalJSON accepts date strings, epoch milliseconds and null.
// Unparseable values decode to an invalid Date rather than an error so a
// single bad record does not fail the whole list.
func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = ParseDate(s)
		return nil
	}
	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*d = Date{}
		return nil
	}
	*d = Date{Time: time.UnixMilli(int64(ms)).UTC(), Valid: true}
	return nil
}

// MarshalJSON writes RFC 3339 for valid dates and null otherwise.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format(time.RFC3339))
}
