// Package numeric parses the loosely formatted numbers found in TouchExpress
// payloads and CSV exports.
package numeric

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse converts v into a float64. It accepts native numeric types and strings
// using either a dot or a comma as decimal separator, with optional thousands
// separators, spaces and non-breaking spaces. Empty strings, "NaN" and nil
// report false instead of failing.
func Parse(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case float32:
		return Parse(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		return ParseString(n)
	default:
		return ParseString(fmt.Sprint(n))
	}
}

// ParseString is Parse for strings.
func ParseString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(s)

	f, err := strconv.ParseFloat(normalizeSeparators(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// normalizeSeparators rewrites s so the decimal separator is a dot and
// thousands separators are gone. When both separators appear the last one is
// the decimal mark ("1.234,56" and "1,234.56" are both 1234.56).
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// Round rounds f to the given number of decimal places.
func Round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
