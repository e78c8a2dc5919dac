package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"basketbolista/internal/domain"
)

const (
	minNameLen = 1
	maxNameLen = 20
	minPinLen  = 4
	maxPinLen  = 10
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type registrationService struct {
	eventRepo      domain.EventRepository
	regRepo        domain.RegistrationRepository
	groupRepo      domain.GroupRepository
	notifier       domain.NotificationService
	pins           domain.PinHasher
	logger         *slog.Logger
	loc            *time.Location
	now            func() time.Time
	contextTimeout time.Duration
}

// NewRegistrationService creates the registration engine. loc is the
// timezone event times are interpreted in; nil means time.Local.
func NewRegistrationService(
	eventRepo domain.EventRepository,
	regRepo domain.RegistrationRepository,
	groupRepo domain.GroupRepository,
	notifier domain.NotificationService,
	pins domain.PinHasher,
	logger *slog.Logger,
	loc *time.Location,
	timeout time.Duration,
) domain.RegistrationService {
	if loc == nil {
		loc = time.Local
	}
	return &registrationService{
		eventRepo:      eventRepo,
		regRepo:        regRepo,
		groupRepo:      groupRepo,
		notifier:       notifier,
		pins:           pins,
		logger:         logger,
		loc:            loc,
		now:            time.Now,
		contextTimeout: timeout,
	}
}

// storeError wraps an unexpected repository error so callers can match the
// ErrStoreUnavailable sentinel. Retrying is the store client's business, not
// ours.
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}

func (s *registrationService) isPast(event *domain.Event) bool {
	return event.EndsAt(s.loc).Before(s.now())
}

// partition splits a rank-ordered ledger into confirmed and waitlisted by
// position versus capacity. Status is never read from storage.
func partition(regs []*domain.Registration, capacity int) *domain.LedgerView {
	view := &domain.LedgerView{
		Confirmed:  []domain.RankedRegistration{},
		Waitlisted: []domain.RankedRegistration{},
	}
	for i, reg := range regs {
		if i < capacity {
			view.Confirmed = append(view.Confirmed, domain.RankedRegistration{
				Registration: reg,
				Status:       domain.StatusConfirmed,
				Rank:         len(view.Confirmed) + 1,
			})
		} else {
			view.Waitlisted = append(view.Waitlisted, domain.RankedRegistration{
				Registration: reg,
				Status:       domain.StatusWaitlisted,
				Rank:         len(view.Waitlisted) + 1,
			})
		}
	}
	return view
}

func validateRegisterInput(in *domain.RegisterInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if len(in.Name) < minNameLen || len(in.Name) > maxNameLen {
		return fmt.Errorf("%w: name must be between %d and %d characters", domain.ErrValidation, minNameLen, maxNameLen)
	}
	if in.PIN != "" && (len(in.PIN) < minPinLen || len(in.PIN) > maxPinLen) {
		return fmt.Errorf("%w: pin must be between %d and %d characters", domain.ErrValidation, minPinLen, maxPinLen)
	}
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email != "" && !emailRegexp.MatchString(in.Email) {
		return fmt.Errorf("%w: invalid email format", domain.ErrValidation)
	}
	return nil
}

func (s *registrationService) Register(ctx context.Context, eventID string, in domain.RegisterInput, identity *domain.Identity) (*domain.RankedRegistration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := validateRegisterInput(&in); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("get event", err)
	}
	if !event.IsOpenForRegistration {
		return nil, domain.ErrEventClosed
	}
	if s.isPast(event) {
		return nil, domain.ErrEventPast
	}

	// The duplicate check runs against a ledger fetched right here, not a
	// cached copy, to keep the race window between two concurrent
	// registrants as small as the store allows.
	ledger, err := s.regRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, storeError("list registrations", err)
	}
	for _, existing := range ledger {
		if strings.EqualFold(existing.Name, in.Name) {
			return nil, domain.ErrDuplicateName
		}
	}

	reg := &domain.Registration{
		EventID:   eventID,
		Name:      in.Name,
		Email:     in.Email,
		CreatedAt: s.now(),
	}
	if identity != nil {
		reg.OwnerUID = identity.ID
		if reg.Email == "" {
			reg.Email = strings.ToLower(identity.Email)
		}
	}
	if in.PIN != "" {
		hash, err := s.pins.Hash(in.PIN)
		if err != nil {
			return nil, fmt.Errorf("hash pin: %w", err)
		}
		reg.PINHash = hash
	}

	if err := s.regRepo.Create(ctx, reg); err != nil {
		return nil, storeError("create registration", err)
	}

	ranked, err := s.rankOf(ctx, event, reg.ID)
	if err != nil {
		return nil, err
	}

	if reg.Email != "" {
		if err := s.notifier.SendRegistrationReceived(ctx, event, reg, ranked.Status); err != nil {
			s.logger.Warn("registration notification failed", "event_id", eventID, "registration_id", reg.ID, "err", err)
		}
	}
	return ranked, nil
}

// rankOf re-reads the ledger and locates the registration's derived status
// and 1-based rank within its group.
func (s *registrationService) rankOf(ctx context.Context, event *domain.Event, regID string) (*domain.RankedRegistration, error) {
	ledger, err := s.regRepo.ListByEventID(ctx, event.ID)
	if err != nil {
		return nil, storeError("list registrations", err)
	}
	view := partition(ledger, event.Capacity)
	for i := range view.Confirmed {
		if view.Confirmed[i].ID == regID {
			return &view.Confirmed[i], nil
		}
	}
	for i := range view.Waitlisted {
		if view.Waitlisted[i].ID == regID {
			return &view.Waitlisted[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// loadForAction fetches the event, registration and owning group for cancel
// and paid-toggle calls. A missing group only disables the admin path.
func (s *registrationService) loadForAction(ctx context.Context, eventID, registrationID string) (*domain.Event, *domain.Registration, *domain.Group, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, nil, domain.ErrNotFound
		}
		return nil, nil, nil, storeError("get event", err)
	}
	reg, err := s.regRepo.GetByID(ctx, eventID, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, nil, domain.ErrNotFound
		}
		return nil, nil, nil, storeError("get registration", err)
	}
	group, err := s.groupRepo.GetByID(ctx, event.GroupID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, nil, storeError("get group", err)
		}
		group = nil
	}
	return event, reg, group, nil
}

func (s *registrationService) Cancel(ctx context.Context, eventID, registrationID string, cred domain.Credential) (*domain.LedgerView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, reg, group, err := s.loadForAction(ctx, eventID, registrationID)
	if err != nil {
		return nil, err
	}

	decision := resolveCredential(group, reg, cred, s.pins)
	if decision == domain.AuthzDenied {
		return nil, domain.ErrForbidden
	}
	// Past rosters are locked; only organizers may fix mistakes.
	if s.isPast(event) && decision != domain.AuthzAdmin {
		return nil, domain.ErrEventPast
	}

	ledger, err := s.regRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, storeError("list registrations", err)
	}
	rank := -1
	for i, existing := range ledger {
		if existing.ID == registrationID {
			rank = i
			break
		}
	}
	if rank == -1 {
		return nil, domain.ErrNotFound
	}
	wasConfirmed := rank < event.Capacity

	if err := s.regRepo.Delete(ctx, eventID, registrationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("delete registration", err)
	}

	// Promotion is implicit in the derived partition: removing a confirmed
	// entry slides the earliest waitlisted one under capacity. Only the
	// notification is an explicit act.
	var promoted *domain.Registration
	if wasConfirmed && len(ledger) > event.Capacity {
		promoted = ledger[event.Capacity]
	}

	if err := s.notifier.SendCancellation(ctx, event, reg, !wasConfirmed); err != nil {
		s.logger.Warn("cancellation notification failed", "event_id", eventID, "registration_id", registrationID, "err", err)
	}
	if promoted != nil {
		if err := s.notifier.SendWaitlistPromoted(ctx, event, promoted); err != nil {
			s.logger.Warn("promotion notification failed", "event_id", eventID, "registration_id", promoted.ID, "err", err)
		}
	}

	updated, err := s.regRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, storeError("list registrations", err)
	}
	return partition(updated, event.Capacity), nil
}

func (s *registrationService) SetPaid(ctx context.Context, eventID, registrationID string, paid bool, cred domain.Credential) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, reg, group, err := s.loadForAction(ctx, eventID, registrationID)
	if err != nil {
		return err
	}

	decision := resolveCredential(group, reg, cred, s.pins)
	if decision == domain.AuthzDenied {
		return domain.ErrForbidden
	}
	if s.isPast(event) && decision != domain.AuthzAdmin {
		return domain.ErrEventPast
	}

	// Setting the current value again is a valid no-op, not an error.
	if err := s.regRepo.SetPaid(ctx, eventID, registrationID, paid); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return storeError("set paid", err)
	}
	return nil
}

func (s *registrationService) Ledger(ctx context.Context, eventID string) (*domain.LedgerView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("get event", err)
	}
	ledger, err := s.regRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, storeError("list registrations", err)
	}
	return partition(ledger, event.Capacity), nil
}
