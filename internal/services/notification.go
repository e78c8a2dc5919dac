package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"basketbolista/internal/domain"
)

const emailSubjectPrefix = "[basketbo-lista] "

type notificationService struct {
	mailer    domain.Mailer
	groupRepo domain.GroupRepository
	baseURL   string
}

// NewNotificationService returns a NotificationService that renders the
// registration lifecycle emails and BCCs group admins where the workflow
// requires it.
func NewNotificationService(mailer domain.Mailer, groupRepo domain.GroupRepository, baseURL string) domain.NotificationService {
	return &notificationService{
		mailer:    mailer,
		groupRepo: groupRepo,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
	}
}

// eventBody is the shared Date/Time/Venue/Name block every email carries.
func (s *notificationService) eventBody(event *domain.Event, reg *domain.Registration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Date</b>: %s<br>", formatEventDate(event.Date))
	fmt.Fprintf(&b, "<b>Time</b>: %s<br>", formatTimeRange(event.StartTime, event.EndTime))
	fmt.Fprintf(&b, "<b>Venue</b>: %s<br><br>", html.EscapeString(event.Venue))
	fmt.Fprintf(&b, "<b>Name</b>: %s", html.EscapeString(reg.Name))
	return b.String()
}

func (s *notificationService) link(event *domain.Event) string {
	return fmt.Sprintf("<br><br><b>Link</b>: %s", shareLink(s.baseURL, event))
}

// adminEmails collects the group admin plus co-admins for BCC. A missing
// group just means no BCC list.
func (s *notificationService) adminEmails(ctx context.Context, groupID string) []string {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return nil
	}
	emails := make([]string, 0, len(group.CoAdmins)+1)
	if group.AdminEmail != "" {
		emails = append(emails, group.AdminEmail)
	}
	emails = append(emails, group.CoAdmins...)
	return emails
}

func (s *notificationService) SendRegistrationReceived(ctx context.Context, event *domain.Event, reg *domain.Registration, status domain.RegistrationStatus) error {
	if reg.Email == "" {
		return nil
	}
	subject := emailSubjectPrefix + "Registration completed"
	if status == domain.StatusWaitlisted {
		subject = emailSubjectPrefix + "Added to waitlist"
	}
	body := s.eventBody(event, reg) + s.link(event)
	if err := s.mailer.Send(reg.Email, nil, subject, body, ""); err != nil {
		return fmt.Errorf("send registration email: %w", err)
	}
	return nil
}

func (s *notificationService) SendCancellation(ctx context.Context, event *domain.Event, reg *domain.Registration, wasWaitlisted bool) error {
	bcc := s.adminEmails(ctx, event.GroupID)
	if reg.Email == "" && len(bcc) == 0 {
		return nil
	}
	subject := emailSubjectPrefix + "Registration cancelled"
	if wasWaitlisted {
		subject = emailSubjectPrefix + "Waitlist registration cancelled"
	}
	to := reg.Email
	if to == "" {
		// No registrant contact; the admin copy is the whole point then.
		to, bcc = bcc[0], bcc[1:]
	}
	body := s.eventBody(event, reg) + s.link(event)
	if err := s.mailer.Send(to, bcc, subject, body, ""); err != nil {
		return fmt.Errorf("send cancellation email: %w", err)
	}
	return nil
}

func (s *notificationService) SendWaitlistPromoted(ctx context.Context, event *domain.Event, reg *domain.Registration) error {
	bcc := s.adminEmails(ctx, event.GroupID)
	if reg.Email == "" && len(bcc) == 0 {
		return nil
	}
	subject := emailSubjectPrefix + "Waitlist upgraded to registered"
	to := reg.Email
	if to == "" {
		to, bcc = bcc[0], bcc[1:]
	}
	body := s.eventBody(event, reg) + s.link(event)
	if err := s.mailer.Send(to, bcc, subject, body, ""); err != nil {
		return fmt.Errorf("send promotion email: %w", err)
	}
	return nil
}
