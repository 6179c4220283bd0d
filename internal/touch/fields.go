package touch

import (
	"fmt"
	"strings"
	"time"

	"touch_daily/internal/numeric"
)

// Field spellings observed in TouchExpress payloads. Upstream naming is not
// consistent across endpoints or deployments, so each logical field is a list
// of candidates tried in order.
var (
	TimestampKeys = []string{"fecha", "Fecha", "FechaReg"}
	QuantityKeys  = []string{"can tad", "cantidad"}
	SeriesKeys    = []string{"serie", "Serie"}
	TicketKeys    = []string{"num ket", "num tket", "numtiket", "num"}
)

// Document is one raw JSON object from a TouchExpress response.
type Document map[string]any

// Pick returns the first candidate key holding a non-empty value. Exact keys
// are tried first; a second pass compares keys with spaces removed and
// lower-cased.
func (d Document) Pick(candidates ...string) any {
	for _, k := range candidates {
		if v, ok := d[k]; ok && !isBlank(v) {
			return v
		}
	}

	normalized := make(map[string]any, len(d))
	for k, v := range d {
		normalized[normalizeKey(k)] = v
	}
	for _, k := range candidates {
		if v, ok := normalized[normalizeKey(k)]; ok && !isBlank(v) {
			return v
		}
	}
	return nil
}

// String returns the value at key formatted as a string, or "" when absent.
func (d Document) String(key string) string {
	return stringify(d[key])
}

// PickString is Pick followed by string formatting.
func (d Document) PickString(candidates ...string) string {
	return stringify(d.Pick(candidates...))
}

// Float returns the tolerant numeric value at key.
func (d Document) Float(key string) (float64, bool) {
	return numeric.Parse(d[key])
}

// Object returns the nested object at key, or an empty Document.
func (d Document) Object(key string) Document {
	if m, ok := d[key].(map[string]any); ok {
		return Document(m)
	}
	return Document{}
}

// Lines returns the product lines of a document ("productos").
func (d Document) Lines() []Document {
	raw, ok := d["productos"].([]any)
	if !ok {
		return nil
	}
	lines := make([]Document, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			lines = append(lines, Document(m))
		}
	}
	return lines
}

// Timestamp parses the document date using the accepted key spellings.
func (d Document) Timestamp() (time.Time, error) {
	raw := d.PickString(TimestampKeys...)
	if raw == "" {
		return time.Time{}, fmt.Errorf("document has no timestamp field")
	}
	return ParseTimestamp(raw)
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-like timestamp as sent by the API. A trailing
// "Z" is dropped and the result is a wall-clock time in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "Z", "")
	for _, layout := range timestampLayouts {
		if len(s) < len(layout) {
			continue
		}
		if t, err := time.Parse(layout, s[:len(layout)]); err == nil {
			return t, nil
		}
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
	}
	datePart, _, _ := strings.Cut(s, "T")
	t, err := time.Parse("2006-01-02", datePart)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
	}
	return t, nil
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(k, " ", ""))
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprint(x)
	default:
		return fmt.Sprint(x)
	}
}
