// Package metadata describes the media attributes imported from files and
// the columns keeping them, along with user overrides.
package metadata

import (
	"encoding/json"
	"math"
	"mediacat/fault"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

type Type int

const (
	String Type = iota
	Integer
	Float
	DateTime
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case DateTime:
		return "datetime"
	}
	return "unknown"
}

// Record is one exiftool -n -json record
type Record map[string]any

// Parser converts a raw record value, ok is false when it cannot be used
type Parser func(v any) (value any, ok bool)

// ImportField names a record key and optionally how to parse it
type ImportField struct {
	Name  string
	Parse Parser
}

// Subject is what ShouldImport gets to look at
type Subject interface {
	IsVideo() bool
}

type Field struct {
	Key          string
	Type         Type
	MaxLength    int
	ImportFields []ImportField
	// ShouldImport skips importing when it returns false, the default is stored instead
	ShouldImport func(s Subject) bool
	// Import replaces the ImportFields lookup
	Import  func(rec Record) (any, bool)
	Default any

	media      slot
	overridden slot
}

// Extract returns the first usable value for this field from rec
func (f *Field) Extract(rec Record) (any, bool) {
	if f.Import != nil {
		return f.Import(rec)
	}
	for _, imp := range f.ImportFields {
		raw, found := rec[imp.Name]
		if !found || raw == nil {
			continue
		}
		var value any
		var ok bool
		if imp.Parse != nil {
			value, ok = imp.Parse(raw)
		} else {
			value, ok = f.fromRecord(raw)
		}
		if ok {
			return value, true
		}
	}
	return nil, false
}

// fromRecord is the lenient conversion used on imported values: strings
// longer than MaxLength are cut instead of refused
func (f *Field) fromRecord(raw any) (any, bool) {
	if f.Type == String {
		s := toString(raw)
		if s == "" {
			return nil, false
		}
		return truncate(s, f.MaxLength), true
	}
	value, err := f.Coerce(raw)
	return value, err == nil && value != nil
}

// Coerce converts v to the Go type stored for this field: string, int64,
// float64 or time.Time. Nil stays nil.
func (f *Field) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	invalid := func() error {
		return fault.ValidationFailure.New(fault.Args{"field": f.Key, "type": f.Type.String()})
	}
	switch f.Type {
	case String:
		s, ok := v.(string)
		if !ok {
			return nil, invalid()
		}
		if f.MaxLength > 0 && utf8.RuneCountInString(s) > f.MaxLength {
			return nil, fault.ValidationFailure.New(fault.Args{"field": f.Key, "max_length": f.MaxLength})
		}
		return s, nil
	case Integer:
		n, ok := toFloat(v)
		if !ok || n != math.Trunc(n) {
			return nil, invalid()
		}
		return int64(n), nil
	case Float:
		n, ok := toFloat(v)
		if !ok {
			return nil, invalid()
		}
		return n, nil
	case DateTime:
		switch t := v.(type) {
		case time.Time:
			return localTime(t), nil
		case string:
			if parsed, ok := ParseDateTime(t); ok {
				return parsed, nil
			}
		}
		return nil, invalid()
	}
	return nil, invalid()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	}
	return ""
}

func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// DateTimeFormat is how datetimes are serialized: ISO 8601 local time
// with milliseconds
const DateTimeFormat = "2006-01-02T15:04:05.000"

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDateTime reads an ISO 8601 datetime. A zone suffix, if any, is
// dropped and the wall clock is kept.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return localTime(t), true
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// localTime keeps the wall clock of t in a zone-less (UTC) value
func localTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeFormat)
}
