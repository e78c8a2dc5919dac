package domain

import (
	"context"
	"time"
)

// Event is a single game slot owned by a group: one date, one venue, one
// capacity-bound roster.
// swagger:model Event
type Event struct {
	ID                    string    `json:"id"`
	GroupID               string    `json:"group_id"`
	Date                  time.Time `json:"date"`       // day of the game; time-of-day is ignored
	StartTime             string    `json:"start_time"` // "HH:MM", local to the group
	EndTime               string    `json:"end_time"`   // "HH:MM"
	Venue                 string    `json:"venue"`
	Capacity              int       `json:"capacity"`
	PayTo                 string    `json:"pay_to"`
	IsOpenForRegistration bool      `json:"is_open_for_registration"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// StartsAt combines Date and StartTime in the given location.
func (e *Event) StartsAt(loc *time.Location) time.Time {
	return combineDateTime(e.Date, e.StartTime, loc)
}

// EndsAt combines Date and EndTime in the given location. Events are past
// once EndsAt has elapsed; this is the single past-event rule everywhere.
func (e *Event) EndsAt(loc *time.Location) time.Time {
	return combineDateTime(e.Date, e.EndTime, loc)
}

func combineDateTime(date time.Time, hhmm string, loc *time.Location) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		// Malformed time-of-day falls back to end of day so a bad row never
		// locks out its own roster.
		return time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 0, 0, loc)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// EventUpdate carries the mutable event fields; nil pointers are left as-is.
type EventUpdate struct {
	Date                  *time.Time
	StartTime             *string
	EndTime               *string
	Venue                 *string
	Capacity              *int
	PayTo                 *string
	IsOpenForRegistration *bool
}

// ShareLinkParams identify an event without exposing a database id, the way
// shared URLs encode it.
type ShareLinkParams struct {
	GroupID   string
	Date      time.Time
	Venue     string
	StartTime string
	EndTime   string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetByShareParams(ctx context.Context, p ShareLinkParams) (*Event, error)
	// ExistsSlot reports whether the group already has an event on the same
	// date, venue and start time.
	ExistsSlot(ctx context.Context, groupID string, date time.Time, venue, startTime string) (bool, error)
	ListByGroupID(ctx context.Context, groupID string, p PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, id string, upd EventUpdate) (*Event, error)
	Delete(ctx context.Context, id string) error
}

// EventService defines admin-facing event lifecycle operations plus the
// public share-link and calendar exports.
type EventService interface {
	Create(ctx context.Context, identity *Identity, event *Event) error
	GetByID(ctx context.Context, eventID string) (*Event, error)
	ResolveShareLink(ctx context.Context, p ShareLinkParams) (*Event, error)
	ListByGroup(ctx context.Context, groupID string, p PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, identity *Identity, eventID string, upd EventUpdate) (*Event, error)
	Delete(ctx context.Context, identity *Identity, eventID string) error
	ShareLink(event *Event) string
	CalendarEntry(event *Event) string
	DetailsText(event *Event, ledger *LedgerView) string
}
