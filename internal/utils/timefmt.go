package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout    = "2006-01-02"
	clockLayout   = "15:04:05"
	localLayout   = "2006-01-02T15:04:05"
	displayLayout = "02 Jan 2006, 3:04 PM"
)

// DefaultClock is used when a booking has no arrival or departure time
const DefaultClock = "00:00:00"

// HourEpoch interprets date and clock in loc, truncates to the hour and
// returns epoch seconds shifted by offsetHours.
func HourEpoch(date, clock string, loc *time.Location, offsetHours int) (int64, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = DefaultClock
	}

	d, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q", date)
	}

	c, err := parseClock(clock)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", clock)
	}

	t := time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), 0, 0, 0, loc)
	return t.Add(time.Duration(offsetHours) * time.Hour).Unix(), nil
}

// accepts HH:MM:SS and HH:MM
func parseClock(clock string) (time.Time, error) {
	if t, err := time.Parse(clockLayout, clock); err == nil {
		return t, nil
	}
	return time.Parse("15:04", clock)
}

// LocalDateTime renders epoch seconds as a naive local timestamp
func LocalDateTime(epoch int64, loc *time.Location) string {
	return time.Unix(epoch, 0).In(loc).Format(localLayout)
}

// DisplayTime renders epoch seconds for guests, e.g. "10 Jan 2024, 2:00 p.m."
func DisplayTime(epoch int64, loc *time.Location) string {
	s := time.Unix(epoch, 0).In(loc).Format(displayLayout)
	s = strings.Replace(s, "AM", "a.m.", 1)
	return strings.Replace(s, "PM", "p.m.", 1)
}

// ValidDate reports whether s is a YYYY-MM-DD date
func ValidDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// Today returns the current local date in loc
func Today(loc *time.Location) string {
	return time.Now().In(loc).Format(dateLayout)
}
