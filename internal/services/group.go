package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"basketbolista/internal/domain"
)

type groupService struct {
	groupRepo      domain.GroupRepository
	contextTimeout time.Duration
}

// NewGroupService creates the group management service.
func NewGroupService(groupRepo domain.GroupRepository, timeout time.Duration) domain.GroupService {
	return &groupService{
		groupRepo:      groupRepo,
		contextTimeout: timeout,
	}
}

func (s *groupService) Create(ctx context.Context, identity *domain.Identity, name string) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if identity == nil || identity.Email == "" {
		return nil, domain.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", domain.ErrValidation)
	}

	now := time.Now()
	group := &domain.Group{
		ID:         uuid.NewString(),
		Name:       name,
		AdminEmail: strings.ToLower(identity.Email),
		CoAdmins:   []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, storeError("create group", err)
	}
	return group, nil
}

func (s *groupService) GetByID(ctx context.Context, identity *domain.Identity, id string) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("get group", err)
	}
	if identity == nil || !group.IsAdmin(identity.Email) {
		return nil, domain.ErrForbidden
	}
	return group, nil
}

func (s *groupService) UpdateSettings(ctx context.Context, identity *domain.Identity, id string, settings domain.GroupSettings) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("get group", err)
	}
	if identity == nil || !group.IsAdmin(identity.Email) {
		return nil, domain.ErrForbidden
	}

	if settings.Name != nil {
		trimmed := strings.TrimSpace(*settings.Name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: group name is required", domain.ErrValidation)
		}
		settings.Name = &trimmed
	}
	if settings.CoAdmins != nil {
		// Normalize and drop the admin's own address; they are always an
		// admin anyway.
		cleaned := make([]string, 0, len(*settings.CoAdmins))
		seen := make(map[string]struct{})
		for _, email := range *settings.CoAdmins {
			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" || !emailRegexp.MatchString(email) {
				return nil, fmt.Errorf("%w: invalid co-admin email %q", domain.ErrValidation, email)
			}
			if email == group.AdminEmail {
				continue
			}
			if _, ok := seen[email]; ok {
				continue
			}
			seen[email] = struct{}{}
			cleaned = append(cleaned, email)
		}
		settings.CoAdmins = &cleaned
	}

	updated, err := s.groupRepo.Update(ctx, id, settings)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("update group", err)
	}
	return updated, nil
}

func (s *groupService) IsAdminOfGroup(ctx context.Context, email, groupID string) (bool, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, domain.ErrNotFound
		}
		return false, storeError("get group", err)
	}
	return group.IsAdmin(email), nil
}
