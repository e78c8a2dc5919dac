package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
// bcc may be empty.
type Mailer interface {
	Send(to string, bcc []string, subject, html, text string) error
}

// NotificationService sends the registration lifecycle emails. All methods
// are best-effort: callers log failures and never roll back state on them.
type NotificationService interface {
	// SendRegistrationReceived confirms a new registration, confirmed or
	// waitlisted.
	SendRegistrationReceived(ctx context.Context, event *Event, reg *Registration, status RegistrationStatus) error
	// SendCancellation notifies the cancelled registrant, BCC group admins.
	// wasWaitlisted selects the waitlist-flavored subject.
	SendCancellation(ctx context.Context, event *Event, reg *Registration, wasWaitlisted bool) error
	// SendWaitlistPromoted notifies a registrant whose rank moved into
	// capacity after a confirmed cancellation, BCC group admins.
	SendWaitlistPromoted(ctx context.Context, event *Event, reg *Registration) error
}
