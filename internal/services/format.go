package services

import (
	"strings"
	"time"
)

// formatEventDate renders the event day the way the emails and roster
// exports always have: "SAT 01 MAR 2026".
func formatEventDate(date time.Time) string {
	return strings.ToUpper(date.Format("Mon 02 Jan 2006"))
}

// formatTimeOfDay renders "HH:MM" as a 12-hour clock time, e.g. "7:00 PM".
// Malformed values pass through unchanged.
func formatTimeOfDay(hhmm string) string {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return hhmm
	}
	return strings.ToUpper(t.Format("3:04 PM"))
}

func formatTimeRange(startTime, endTime string) string {
	return formatTimeOfDay(startTime) + " - " + formatTimeOfDay(endTime)
}
