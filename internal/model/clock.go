package model

import (
	"fmt"
	"strings"
	"time"
)

// MinutesPerDay is the length of the 24h clock that ClockTime wraps on.
const MinutesPerDay = 24 * 60

// ClockTime is a wall-clock time of day in minutes since midnight (0..1439).
type ClockTime int

// ParseClock parses "HH:MM" on a 24h clock.
func ParseClock(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return ClockTime(h*60 + m), nil
}

// ClockOf returns the time of day of t in t's own location.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Window is a daily clock interval [Start, End). When Start >= End the
// window wraps past midnight.
type Window struct {
	Start ClockTime
	End   ClockTime
}

// ParseWindow parses a pair of "HH:MM" bounds.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: s, End: e}, nil
}

// Contains reports whether t falls inside the window.
//
// Start == End takes the wrapping branch and so matches every time of day;
// configuration rejects such windows instead of relying on that.
func (w Window) Contains(t ClockTime) bool {
	if w.Start < w.End {
		return t >= w.Start && t < w.End
	}
	return t >= w.Start || t < w.End
}

// Degenerate reports whether the window has equal bounds.
func (w Window) Degenerate() bool {
	return w.Start == w.End
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}
