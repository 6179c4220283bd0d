package workbook

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"touch_daily/internal/numeric"
)

// Coerce converts a raw row value into what gets written to the cell. Rules
// apply in order: nil and the string "none" become "", text columns are
// stringified, datetime and date columns are parsed, numeric columns become
// float64. Parse failures keep the input string.
func (p *Policy) Coerce(column string, v any) any {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok && strings.EqualFold(strings.TrimSpace(s), "none") {
		return ""
	}

	switch p.TypeOf(column) {
	case TypeText:
		return stringValue(v)
	case TypeDateTime:
		if t, ok := v.(time.Time); ok {
			return t
		}
		s := stringValue(v)
		if t, ok := ParseDateTime(s); ok {
			return t
		}
		return s
	case TypeDate:
		if t, ok := v.(time.Time); ok {
			return truncateDay(t)
		}
		s := stringValue(v)
		if t, ok := ParseDate(s); ok {
			return t
		}
		return s
	case TypeNumeric:
		if f, ok := numeric.Parse(v); ok {
			return f
		}
		if s, ok := v.(string); ok && s == "" {
			return ""
		}
		return stringValue(v)
	}
	return v
}

var dateTimeLayouts = []string{
	"2/1/2006 15:4",
	"2/1/2006 15:4:5",
	"2006-1-2 15:4",
	"2006-1-2 15:4:5",
	"2006-1-2T15:4",
	"2006-1-2T15:4:5",
}

var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02",
}

var dateLayouts = []string{
	"2/1/2006",
	"2006-1-2",
}

// ParseDateTime parses day-first and ISO timestamps. A "Z" marker is
// ignored and the result is a wall-clock time in UTC.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "Z", "")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return parseISO(s)
}

// ParseDate parses day-first and ISO dates; an ISO timestamp is truncated
// to its day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "Z", "")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	t, ok := parseISO(s)
	if !ok {
		return time.Time{}, false
	}
	return truncateDay(t), true
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), true
		}
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func stringValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}
