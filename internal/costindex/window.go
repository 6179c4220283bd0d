package costindex

import (
	"fmt"
	"strings"
	"time"
)

// Anchor selects which month the cost window starts in.
type Anchor string

const (
	// AnchorCurrentMonth starts the window on the first day of the month of
	// the run ("now"), whatever the target date is. A target in an earlier
	// month therefore yields an empty window.
	AnchorCurrentMonth Anchor = "current-month"
	// AnchorTargetMonth starts the window on the first day of the target
	// date's month.
	AnchorTargetMonth Anchor = "target-month"
)

// ParseAnchor accepts the configuration spelling of an Anchor.
func ParseAnchor(s string) (Anchor, error) {
	switch Anchor(strings.ToLower(strings.TrimSpace(s))) {
	case "", AnchorCurrentMonth:
		return AnchorCurrentMonth, nil
	case AnchorTargetMonth:
		return AnchorTargetMonth, nil
	default:
		return "", fmt.Errorf("unknown cost window anchor %q (want %q or %q)", s, AnchorCurrentMonth, AnchorTargetMonth)
	}
}

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window ending on target. now is only consulted for
// AnchorCurrentMonth.
func NewWindow(anchor Anchor, now, target time.Time) Window {
	ref := now
	if anchor == AnchorTargetMonth {
		ref = target
	}
	return Window{
		Start: time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC),
		End:   Day(target),
	}
}

// Days lists every day in the window, oldest first. It is empty when Start
// is after End.
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := Day(w.Start); !d.After(Day(w.End)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
