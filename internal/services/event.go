package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"basketbolista/internal/domain"
)

var timeOfDayRegexpOK = func(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

type eventService struct {
	eventRepo      domain.EventRepository
	groupSvc       domain.GroupService
	baseURL        string
	loc            *time.Location
	contextTimeout time.Duration
}

// NewEventService creates the admin event lifecycle service. baseURL is the
// public origin shared links point at, e.g. "https://basketbo-lista.com".
func NewEventService(
	eventRepo domain.EventRepository,
	groupSvc domain.GroupService,
	baseURL string,
	loc *time.Location,
	timeout time.Duration,
) domain.EventService {
	if loc == nil {
		loc = time.Local
	}
	return &eventService{
		eventRepo:      eventRepo,
		groupSvc:       groupSvc,
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		loc:            loc,
		contextTimeout: timeout,
	}
}

func (s *eventService) requireAdmin(ctx context.Context, identity *domain.Identity, groupID string) error {
	if identity == nil || identity.Email == "" {
		return domain.ErrForbidden
	}
	ok, err := s.groupSvc.IsAdminOfGroup(ctx, identity.Email, groupID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

func validateEvent(e *domain.Event) error {
	e.Venue = strings.TrimSpace(e.Venue)
	e.PayTo = strings.TrimSpace(e.PayTo)
	switch {
	case e.GroupID == "":
		return fmt.Errorf("%w: group id is required", domain.ErrValidation)
	case e.Date.IsZero():
		return fmt.Errorf("%w: date is required", domain.ErrValidation)
	case e.Venue == "":
		return fmt.Errorf("%w: venue is required", domain.ErrValidation)
	case e.PayTo == "":
		return fmt.Errorf("%w: pay_to is required", domain.ErrValidation)
	case e.Capacity < 1:
		return fmt.Errorf("%w: capacity must be at least 1", domain.ErrValidation)
	case !timeOfDayRegexpOK(e.StartTime) || !timeOfDayRegexpOK(e.EndTime):
		return fmt.Errorf("%w: start_time and end_time must be HH:MM", domain.ErrValidation)
	}
	return nil
}

func (s *eventService) Create(ctx context.Context, identity *domain.Identity, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := validateEvent(event); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, identity, event.GroupID); err != nil {
		return err
	}

	// One slot per (date, venue, start time) within a group.
	exists, err := s.eventRepo.ExistsSlot(ctx, event.GroupID, event.Date, event.Venue, event.StartTime)
	if err != nil {
		return storeError("check slot", err)
	}
	if exists {
		return fmt.Errorf("%w: an event with the same date, venue and time already exists", domain.ErrValidation)
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return storeError("create event", err)
	}
	return nil
}

func (s *eventService) GetByID(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("get event", err)
	}
	return event, nil
}

func (s *eventService) ResolveShareLink(ctx context.Context, p domain.ShareLinkParams) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByShareParams(ctx, p)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("resolve share link", err)
	}
	return event, nil
}

func (s *eventService) ListByGroup(ctx context.Context, groupID string, p domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.ListByGroupID(ctx, groupID, p)
	if err != nil {
		return nil, 0, storeError("list events", err)
	}
	return events, total, nil
}

func (s *eventService) Update(ctx context.Context, identity *domain.Identity, eventID string, upd domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("get event", err)
	}
	if err := s.requireAdmin(ctx, identity, event.GroupID); err != nil {
		return nil, err
	}
	if upd.Capacity != nil && *upd.Capacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be at least 1", domain.ErrValidation)
	}
	if upd.StartTime != nil && !timeOfDayRegexpOK(*upd.StartTime) {
		return nil, fmt.Errorf("%w: start_time must be HH:MM", domain.ErrValidation)
	}
	if upd.EndTime != nil && !timeOfDayRegexpOK(*upd.EndTime) {
		return nil, fmt.Errorf("%w: end_time must be HH:MM", domain.ErrValidation)
	}

	updated, err := s.eventRepo.Update(ctx, eventID, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("update event", err)
	}
	return updated, nil
}

func (s *eventService) Delete(ctx context.Context, identity *domain.Identity, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return storeError("get event", err)
	}
	if err := s.requireAdmin(ctx, identity, event.GroupID); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return storeError("delete event", err)
	}
	return nil
}

// ShareLink builds the deep link shared in group chats. It identifies the
// event by its visible attributes, not a database id, so the same link keeps
// working across re-imports.
func (s *eventService) ShareLink(event *domain.Event) string {
	return shareLink(s.baseURL, event)
}

func shareLink(baseURL string, event *domain.Event) string {
	q := url.Values{}
	q.Set("groupId", event.GroupID)
	q.Set("date", event.Date.Format("2006-01-02"))
	q.Set("venue", event.Venue)
	q.Set("startTime", event.StartTime)
	q.Set("endTime", event.EndTime)
	return baseURL + "/events?" + q.Encode()
}

// DetailsText is the plain-text roster block admins paste into group chats.
func (s *eventService) DetailsText(event *domain.Event, ledger *domain.LedgerView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Link: %s\n\n", s.ShareLink(event))
	fmt.Fprintf(&b, "Date: %s\n", formatEventDate(event.Date))
	fmt.Fprintf(&b, "Venue: %s\n", event.Venue)
	fmt.Fprintf(&b, "Max: %d players\n", event.Capacity)
	fmt.Fprintf(&b, "Time: %s\n", formatTimeRange(event.StartTime, event.EndTime))
	fmt.Fprintf(&b, "Pay To: %s\n", event.PayTo)
	b.WriteString("\nRegistrations:\n")
	for _, reg := range ledger.Confirmed {
		paid := ""
		if reg.Paid {
			paid = " - Paid"
		}
		fmt.Fprintf(&b, "%d. %s%s\n", reg.Rank, reg.Name, paid)
	}
	b.WriteString("\nWaitlist:\n")
	for _, reg := range ledger.Waitlisted {
		fmt.Fprintf(&b, "%d. %s\n", reg.Rank, reg.Name)
	}
	return b.String()
}
