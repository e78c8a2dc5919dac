package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"basketbolista/internal/domain"
)

const (
	icsProdID     = "-//basketbo-lista.com//Game Schedule//EN"
	icsUIDDomain  = "basketbo-lista.com"
	icsTimeLayout = "20060102T150405Z"
)

// CalendarEntry renders the event as a single-VEVENT iCalendar document.
// DTSTART/DTEND are the event's local start and end converted to UTC, so
// parsing them back reproduces date, start and end time exactly.
func (s *eventService) CalendarEntry(event *domain.Event) string {
	start := event.StartsAt(s.loc).UTC().Format(icsTimeLayout)
	end := event.EndsAt(s.loc).UTC().Format(icsTimeLayout)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + icsProdID,
		"BEGIN:VEVENT",
		fmt.Sprintf("UID:%s@%s", uuid.NewString(), icsUIDDomain),
		"DTSTAMP:" + start,
		"DTSTART:" + start,
		"DTEND:" + end,
		"SUMMARY:" + event.Venue,
		"URL:" + s.ShareLink(event),
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}
