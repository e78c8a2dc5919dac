package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"basketbolista/internal/domain"
)

type fakeEventRepository struct {
	events map[string]*domain.Event
	err    error
}

func (f *fakeEventRepository) Create(ctx context.Context, event *domain.Event) error { return nil }

func (f *fakeEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	ev, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (f *fakeEventRepository) GetByShareParams(ctx context.Context, p domain.ShareLinkParams) (*domain.Event, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepository) ExistsSlot(ctx context.Context, groupID string, date time.Time, venue, startTime string) (bool, error) {
	return false, nil
}

func (f *fakeEventRepository) ListByGroupID(ctx context.Context, groupID string, p domain.PaginationParams) ([]*domain.Event, int, error) {
	return nil, 0, nil
}

func (f *fakeEventRepository) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepository) Delete(ctx context.Context, id string) error { return nil }

// fakeRegistrationRepository keeps an in-memory ledger so cancel paths can
// observe state changing between the two list reads the service performs.
type fakeRegistrationRepository struct {
	regs    []*domain.Registration
	nextSeq int64
	nextID  int
	err     error
}

func (f *fakeRegistrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	if f.err != nil {
		return f.err
	}
	f.nextSeq++
	f.nextID++
	reg.Seq = f.nextSeq
	if reg.ID == "" {
		reg.ID = "reg-" + string(rune('a'+f.nextID-1))
	}
	f.regs = append(f.regs, reg)
	return nil
}

func (f *fakeRegistrationRepository) GetByID(ctx context.Context, eventID, id string) (*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.regs {
		if r.EventID == eventID && r.ID == id {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRegistrationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Registration
	for _, r := range f.regs {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (f *fakeRegistrationRepository) Delete(ctx context.Context, eventID, id string) error {
	for i, r := range f.regs {
		if r.EventID == eventID && r.ID == id {
			f.regs = append(f.regs[:i], f.regs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeRegistrationRepository) SetPaid(ctx context.Context, eventID, id string, paid bool) error {
	for _, r := range f.regs {
		if r.EventID == eventID && r.ID == id {
			r.Paid = paid
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeGroupRepository struct {
	groups map[string]*domain.Group
}

func (f *fakeGroupRepository) Create(ctx context.Context, group *domain.Group) error { return nil }

func (f *fakeGroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return g, nil
}

func (f *fakeGroupRepository) Update(ctx context.Context, id string, s domain.GroupSettings) (*domain.Group, error) {
	return nil, domain.ErrNotFound
}

type receivedCall struct {
	regID  string
	status domain.RegistrationStatus
}

type cancelledCall struct {
	regID         string
	wasWaitlisted bool
}

type fakeNotifier struct {
	received  []receivedCall
	cancelled []cancelledCall
	promoted  []string
	err       error
}

func (f *fakeNotifier) SendRegistrationReceived(ctx context.Context, event *domain.Event, reg *domain.Registration, status domain.RegistrationStatus) error {
	f.received = append(f.received, receivedCall{regID: reg.ID, status: status})
	return f.err
}

func (f *fakeNotifier) SendCancellation(ctx context.Context, event *domain.Event, reg *domain.Registration, wasWaitlisted bool) error {
	f.cancelled = append(f.cancelled, cancelledCall{regID: reg.ID, wasWaitlisted: wasWaitlisted})
	return f.err
}

func (f *fakeNotifier) SendWaitlistPromoted(ctx context.Context, event *domain.Event, reg *domain.Registration) error {
	f.promoted = append(f.promoted, reg.ID)
	return f.err
}

// plainPins avoids bcrypt cost in tests; the real hasher has its own test.
type plainPins struct{}

func (plainPins) Hash(pin string) (string, error) { return "h:" + pin, nil }

func (plainPins) Compare(hash, pin string) bool {
	return hash != "" && pin != "" && hash == "h:"+pin
}

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func futureEvent(id, groupID string, capacity int) *domain.Event {
	return &domain.Event{
		ID:                    id,
		GroupID:               groupID,
		Date:                  time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC),
		StartTime:             "18:00",
		EndTime:               "20:00",
		Venue:                 "Main Gym",
		Capacity:              capacity,
		IsOpenForRegistration: true,
	}
}

func pastEvent(id, groupID string, capacity int) *domain.Event {
	ev := futureEvent(id, groupID, capacity)
	ev.Date = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return ev
}

type testRig struct {
	svc      *registrationService
	events   *fakeEventRepository
	regs     *fakeRegistrationRepository
	groups   *fakeGroupRepository
	notifier *fakeNotifier
	clock    *time.Time
}

func newTestRig(events ...*domain.Event) *testRig {
	eventRepo := &fakeEventRepository{events: map[string]*domain.Event{}}
	for _, ev := range events {
		eventRepo.events[ev.ID] = ev
	}
	regRepo := &fakeRegistrationRepository{}
	groupRepo := &fakeGroupRepository{groups: map[string]*domain.Group{
		"g1": {ID: "g1", Name: "Sunday Hoops", AdminEmail: "admin@example.com", CoAdmins: []string{"coadmin@example.com"}},
	}}
	notifier := &fakeNotifier{}
	clock := testNow
	rig := &testRig{
		events:   eventRepo,
		regs:     regRepo,
		groups:   groupRepo,
		notifier: notifier,
		clock:    &clock,
	}
	rig.svc = &registrationService{
		eventRepo:      eventRepo,
		regRepo:        regRepo,
		groupRepo:      groupRepo,
		notifier:       notifier,
		pins:           plainPins{},
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		loc:            time.UTC,
		now:            func() time.Time { return *rig.clock },
		contextTimeout: time.Second,
	}
	return rig
}

func (r *testRig) register(t *testing.T, eventID, name string, in domain.RegisterInput, identity *domain.Identity) *domain.RankedRegistration {
	t.Helper()
	in.Name = name
	ranked, err := r.svc.Register(context.Background(), eventID, in, identity)
	if err != nil {
		t.Fatalf("register %q: %v", name, err)
	}
	*r.clock = r.clock.Add(time.Minute)
	return ranked
}

func TestRegister_FillOrderAndDerivedStatus(t *testing.T) {
	rig := newTestRig(futureEvent("e1", "g1", 2))

	a := rig.register(t, "e1", "Andres", domain.RegisterInput{}, nil)
	b := rig.register(t, "e1", "Bea", domain.RegisterInput{}, nil)
	c := rig.register(t, "e1", "Carlo", domain.RegisterInput{}, nil)
	d := rig.register(t, "e1", "Diana", domain.RegisterInput{}, nil)

	if a.Status != domain.StatusConfirmed || a.Rank != 1 {
		t.Fatalf("first registrant: got %s rank %d", a.Status, a.Rank)
	}
	if b.Status != domain.StatusConfirmed || b.Rank != 2 {
		t.Fatalf("second registrant: got %s rank %d", b.Status, b.Rank)
	}
	if c.Status != domain.StatusWaitlisted || c.Rank != 1 {
		t.Fatalf("third registrant: got %s rank %d", c.Status, c.Rank)
	}
	if d.Status != domain.StatusWaitlisted || d.Rank != 2 {
		t.Fatalf("fourth registrant: got %s rank %d", d.Status, d.Rank)
	}
	// No emails supplied, no notifications.
	if len(rig.notifier.received) != 0 {
		t.Fatalf("expected no notifications, got %d", len(rig.notifier.received))
	}
}

func TestRegister_EqualTimestampsKeepInsertionOrder(t *testing.T) {
	rig := newTestRig(futureEvent("e1", "g1", 2))

	// Same clock reading for all three; seq must break the tie.
	var ranked []*domain.RankedRegistration
	for _, name := range []string{"First", "Second", "Third"} {
		r, err := rig.svc.Register(context.Background(), "e1", domain.RegisterInput{Name: name}, nil)
		if err != nil {
			t.Fatalf("register %q: %v", name, err)
		}
		ranked = append(ranked, r)
	}

	if ranked[0].Status != domain.StatusConfirmed || ranked[1].Status != domain.StatusConfirmed {
		t.Fatalf("first two should be confirmed, got %s and %s", ranked[0].Status, ranked[1].Status)
	}
	if ranked[2].Status != domain.StatusWaitlisted {
		t.Fatalf("third should be waitlisted, got %s", ranked[2].Status)
	}
}

func TestRegister_DuplicateNameCaseInsensitive(t *testing.T) {
	rig := newTestRig(futureEvent("e1", "g1", 5))
	rig.register(t, "e1", "Alice", domain.RegisterInput{}, nil)

	_, err := rig.svc.Register(context.Background(), "e1", domain.RegisterInput{Name: "alice"}, nil)
	if !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	// The waitlist counts too.
	small := newTestRig(futureEvent("e2", "g1", 1))
	small.register(t, "e2", "Alice", domain.RegisterInput{}, nil)
	small.register(t, "e2", "Bob", domain.RegisterInput{}, nil)
	_, err = small.svc.Register(context.Background(), "e2", domain.RegisterInput{Name: "BOB"}, nil)
	if !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName against waitlisted entry, got %v", err)
	}
}

func TestRegister_ClosedPastAndMissingEvents(t *testing.T) {
	closed := futureEvent("closed", "g1", 2)
	closed.IsOpenForRegistration = false
	rig := newTestRig(closed, pastEvent("past", "g1", 2))

	if _, err := rig.svc.Register(context.Background(), "closed", domain.RegisterInput{Name: "Ana"}, nil); !errors.Is(err, domain.ErrEventClosed) {
		t.Fatalf("expected ErrEventClosed, got %v", err)
	}
	if _, err := rig.svc.Register(context.Background(), "past", domain.RegisterInput{Name: "Ana"}, nil); !errors.Is(err, domain.ErrEventPast) {
		t.Fatalf("expected ErrEventPast, got %v", err)
	}
	if _, err := rig.svc.Register(context.Background(), "nope", domain.RegisterInput{Name: "Ana"}, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	rig := newTestRig(futureEvent("e1", "g1", 2))

	tests := []struct {
		name  string
		input domain.RegisterInput
	}{
		{"empty name", domain.RegisterInput{Name: "   "}},
		{"name too long", domain.RegisterInput{Name: "this name is far too long"}},
		{"pin too short", domain.RegisterInput{Name: "Ana", PIN: "123"}},
		{"pin too long", domain.RegisterInput{Name: "Ana", PIN: "12345678901"}},
		{"bad email", domain.RegisterInput{Name: "Ana", Email: "not-an-email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rig.svc.Register(context.Background(), "e1", tt.input, nil)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRegister_IdentityBindsOwnerAndEmail(t *testing.T) {
	rig := newTestRig(futureEvent("e1", "g1", 2))
	identity := &domain.Identity{ID: "uid-1", Email: "Player@Example.com"}

	ranked := rig.register(t, "e1", "Ana", domain.RegisterInput{}, identity)

	if ranked.OwnerUID != "uid-1" {
		t.Fatalf("expected owner uid bound, got %q", ranked.OwnerUID)
	}
	if ranked.Email != "player@example.com" {
		t.Fatalf("expected identity email lowered, got %q", ranked.Email)
	}
	if len(rig.notifier.received) != 1 || rig.notifier.received[0].status != domain.StatusConfirmed {
		t.Fatalf("expected one confirmed notification, got %+v", rig.notifier.received)
	}
}

func TestRegister_NotificationFailureDoesNotFailRegistration(t *testing.T) {
	rig := newTestRig(futureEvent("e1", "g1", 2))
	rig.notifier.err = errors.New("smtp down")

	ranked := rig.register(t, "e1", "Ana", domain.RegisterInput{Email: "ana@example.com"}, nil)
	if ranked.Status != domain.StatusConfirmed {
		t.Fatalf("expected confirmed despite notifier failure, got %s", ranked.Status)
	}
}

func adminCred() domain.Credential {
	return domain.Credential{Identity: &domain.Identity{ID: "admin-uid", Email: "admin@example.com"}}
}

func TestCancel_ConfirmedPromotesEarliestWaitlisted(t *testing.T) {
	rig := newTestRig(futureEvent("e1", "g1", 1))
	a := rig.register(t, "e1", "Ana", domain.RegisterInput{Email: "ana@example.com"}, nil)
	b := rig.register(t, "e1", "Ben", domain.RegisterInput{Email: "ben@example.com"}, nil)
	c := rig.register(t, "e1", "Cora", domain.RegisterInput{Email: "cora@example.com"}, nil)

	ledger, err := rig.svc.Cancel(context.Background(), "e1", a.ID, adminCred())
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if len(ledger.Confirmed) != 1 || ledger.Confirmed[0].ID != b.ID {
		t.Fatalf("expected %s promoted to confirmed, got %+v", b.ID, ledger.Confirmed)
	}
	if len(ledger.Waitlisted) != 1 || ledger.Waitlisted[0].ID != c.ID || ledger.Waitlisted[0].Rank != 1 {
		t.Fatalf("expected %s waitlisted at rank 1, got %+v", c.ID, ledger.Waitlisted)
	}

	if len(rig.notifier.cancelled) != 1 || rig.notifier.cancelled[0].regID != a.ID || rig.notifier.cancelled[0].wasWaitlisted {
		t.Fatalf("expected one confirmed-cancellation notice for %s, got %+v", a.ID, rig.notifier.cancelled)
	}
	if len(rig.notifier.promoted) != 1 || rig.notifier.promoted[0] != b.ID {
		t.Fatalf("expected exactly one promotion notice for %s, got %v", b.ID, rig.notifier.promoted)
	}
}

func TestCancel_WaitlistedNoPromotion(t *testing.T) {
	rig := newTestRig(futureEvent("e1", "g1", 1))
	rig.register(t, "e1", "Ana", domain.RegisterInput{}, nil)
	b := rig.register(t, "e1", "Ben", domain.RegisterInput{}, nil)

	ledger, err := rig.svc.Cancel(context.Background(), "e1", b.ID, adminCred())
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(rig.notifier.promoted) != 0 {
		t.Fatalf("cancelling a waitlisted entry must not promote, got %v", rig.notifier.promoted)
	}
	if len(rig.notifier.cancelled) != 1 || !rig.notifier.cancelled[0].wasWaitlisted {
		t.Fatalf("expected waitlist-flavored cancellation notice, got %+v", rig.notifier.cancelled)
	}
	if len(ledger.Confirmed) != 1 || len(ledger.Waitlisted) != 0 {
		t.Fatalf("unexpected ledger after cancel: %+v", ledger)
	}
}

func TestCancel_ConfirmedCancelWithEmptyWaitlist(t *testing.T) {
	rig := newTestRig(futureEvent("e1", "g1", 3))
	a := rig.register(t, "e1", "Ana", domain.RegisterInput{}, nil)
	rig.register(t, "e1", "Ben", domain.RegisterInput{}, nil)

	ledger, err := rig.svc.Cancel(context.Background(), "e1", a.ID, adminCred())
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(rig.notifier.promoted) != 0 {
		t.Fatalf("nothing to promote, got %v", rig.notifier.promoted)
	}
	if len(ledger.Confirmed) != 1 {
		t.Fatalf("expected one confirmed left, got %d", len(ledger.Confirmed))
	}
}

func TestCancel_Authorization(t *testing.T) {
	tests := []struct {
		name    string
		cred    domain.Credential
		wantErr error
	}{
		{"no credential", domain.Credential{}, domain.ErrForbidden},
		{"wrong pin", domain.Credential{PIN: "9999"}, domain.ErrForbidden},
		{"matching pin", domain.Credential{PIN: "1234"}, nil},
		{"owner identity", domain.Credential{Identity: &domain.Identity{ID: "uid-owner"}}, nil},
		{"owner by email", domain.Credential{Identity: &domain.Identity{ID: "other", Email: "ana@example.com"}}, nil},
		{"unrelated identity", domain.Credential{Identity: &domain.Identity{ID: "stranger", Email: "x@example.com"}}, domain.ErrForbidden},
		{"group admin", adminCred(), nil},
		{"co-admin", domain.Credential{Identity: &domain.Identity{ID: "co", Email: "CoAdmin@example.com"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := newTestRig(futureEvent("e1", "g1", 2))
			ranked := rig.register(t, "e1", "Ana", domain.RegisterInput{Email: "ana@example.com", PIN: "1234"}, &domain.Identity{ID: "uid-owner", Email: "ana@example.com"})

			_, err := rig.svc.Cancel(context.Background(), "e1", ranked.ID, tt.cred)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCancel_PastEventAdminOnly(t *testing.T) {
	rig := newTestRig(futureEvent("e1", "g1", 2))
	ranked := rig.register(t, "e1", "Ana", domain.RegisterInput{PIN: "1234"}, nil)

	// Event ends, roster locks for everyone but organizers.
	*rig.clock = time.Date(2026, 10, 10, 21, 0, 0, 0, time.UTC)

	_, err := rig.svc.Cancel(context.Background(), "e1", ranked.ID, domain.Credential{PIN: "1234"})
	if !errors.Is(err, domain.ErrEventPast) {
		t.Fatalf("expected ErrEventPast for pin holder, got %v", err)
	}
	if _, err := rig.svc.Cancel(context.Background(), "e1", ranked.ID, adminCred()); err != nil {
		t.Fatalf("admin should cancel past-event registrations, got %v", err)
	}
}

func TestCancel_UnknownIDs(t *testing.T) {
	rig := newTestRig(futureEvent("e1", "g1", 2))
	rig.register(t, "e1", "Ana", domain.RegisterInput{}, nil)

	if _, err := rig.svc.Cancel(context.Background(), "e1", "missing", adminCred()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown registration, got %v", err)
	}
	if _, err := rig.svc.Cancel(context.Background(), "nope", "missing", adminCred()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown event, got %v", err)
	}
}

func TestSetPaid_IdempotentToggle(t *testing.T) {
	rig := newTestRig(futureEvent("e1", "g1", 2))
	ranked := rig.register(t, "e1", "Ana", domain.RegisterInput{PIN: "1234"}, nil)
	cred := domain.Credential{PIN: "1234"}

	if err := rig.svc.SetPaid(context.Background(), "e1", ranked.ID, true, cred); err != nil {
		t.Fatalf("set paid: %v", err)
	}
	// Setting the same value again is a no-op, not an error.
	if err := rig.svc.SetPaid(context.Background(), "e1", ranked.ID, true, cred); err != nil {
		t.Fatalf("idempotent set paid: %v", err)
	}
	if err := rig.svc.SetPaid(context.Background(), "e1", ranked.ID, false, cred); err != nil {
		t.Fatalf("unset paid: %v", err)
	}
	if err := rig.svc.SetPaid(context.Background(), "e1", ranked.ID, true, domain.Credential{PIN: "0000"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden with wrong pin, got %v", err)
	}
}

func TestLedger(t *testing.T) {
	rig := newTestRig(futureEvent("e1", "g1", 1))
	rig.register(t, "e1", "Ana", domain.RegisterInput{}, nil)
	rig.register(t, "e1", "Ben", domain.RegisterInput{}, nil)

	ledger, err := rig.svc.Ledger(context.Background(), "e1")
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if len(ledger.Confirmed) != 1 || len(ledger.Waitlisted) != 1 {
		t.Fatalf("unexpected partition: %+v", ledger)
	}

	if _, err := rig.svc.Ledger(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLedger_StoreErrorWrapsSentinel(t *testing.T) {
	rig := newTestRig(futureEvent("e1", "g1", 1))
	rig.regs.err = errors.New("connection refused")

	_, err := rig.svc.Ledger(context.Background(), "e1")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestPartition_CapacityShrinkBelowHeadcount(t *testing.T) {
	regs := []*domain.Registration{
		{ID: "r1"}, {ID: "r2"}, {ID: "r3"},
	}
	view := partition(regs, 2)
	if len(view.Confirmed) != 2 || len(view.Waitlisted) != 1 {
		t.Fatalf("expected 2/1 split, got %d/%d", len(view.Confirmed), len(view.Waitlisted))
	}
	if view.Waitlisted[0].ID != "r3" || view.Waitlisted[0].Rank != 1 {
		t.Fatalf("latest entry should slide onto the waitlist, got %+v", view.Waitlisted[0])
	}
	empty := partition(nil, 3)
	if empty.Confirmed == nil || empty.Waitlisted == nil {
		t.Fatal("partition must return empty slices, not nil")
	}
}
