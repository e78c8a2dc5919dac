package domain

import (
	"context"
	"strings"
	"time"
)

// Group is a tenant: one league or barkada owning events. The admin and
// co-admins are identified by the email their identity provider asserts.
// swagger:model Group
type Group struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	AdminEmail string    `json:"admin_email"`
	CoAdmins   []string  `json:"co_admins"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsAdmin reports whether the email belongs to the group admin or a co-admin.
// Comparison is case-insensitive the way email addresses are.
func (g *Group) IsAdmin(email string) bool {
	if email == "" {
		return false
	}
	if strings.EqualFold(g.AdminEmail, email) {
		return true
	}
	for _, co := range g.CoAdmins {
		if strings.EqualFold(co, email) {
			return true
		}
	}
	return false
}

// GroupSettings carries the admin-editable group fields.
type GroupSettings struct {
	Name     *string
	CoAdmins *[]string
}

// GroupRepository defines the interface for group storage.
type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	GetByID(ctx context.Context, id string) (*Group, error)
	Update(ctx context.Context, id string, s GroupSettings) (*Group, error)
}

// GroupService defines group management and the admin membership check other
// services consume.
type GroupService interface {
	Create(ctx context.Context, identity *Identity, name string) (*Group, error)
	GetByID(ctx context.Context, identity *Identity, id string) (*Group, error)
	UpdateSettings(ctx context.Context, identity *Identity, id string, s GroupSettings) (*Group, error)
	IsAdminOfGroup(ctx context.Context, email, groupID string) (bool, error)
}
