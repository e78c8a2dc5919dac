package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"basketbolista/internal/domain"
)

type groupRepository struct {
	DB *sql.DB
}

func NewGroupRepository(db *sql.DB) domain.GroupRepository {
	return &groupRepository{
		DB: db,
	}
}

func (r *groupRepository) Create(ctx context.Context, g *domain.Group) error {
	query := `
		INSERT INTO groups (id, name, admin_email, co_admins, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query,
		g.ID, g.Name, g.AdminEmail, pq.StringArray(g.CoAdmins), g.CreatedAt, g.UpdatedAt,
	)
	return err
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	query := `
		SELECT id, name, admin_email, co_admins, created_at, updated_at
		FROM groups
		WHERE id = $1
	`
	g := &domain.Group{}
	var coAdmins pq.StringArray
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.Name, &g.AdminEmail, &coAdmins, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	g.CoAdmins = []string(coAdmins)
	if g.CoAdmins == nil {
		g.CoAdmins = []string{}
	}
	return g, nil
}

func (r *groupRepository) Update(ctx context.Context, id string, s domain.GroupSettings) (*domain.Group, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	if s.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", n))
		args = append(args, *s.Name)
		n++
	}
	if s.CoAdmins != nil {
		setClauses = append(setClauses, fmt.Sprintf("co_admins = $%d", n))
		args = append(args, pq.StringArray(*s.CoAdmins))
		n++
	}
	if n == 1 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE groups SET %s
		WHERE id = $%d
		RETURNING id, name, admin_email, co_admins, created_at, updated_at
	`, strings.Join(setClauses, ", "), n)

	g := &domain.Group{}
	var coAdmins pq.StringArray
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&g.ID, &g.Name, &g.AdminEmail, &coAdmins, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	g.CoAdmins = []string(coAdmins)
	if g.CoAdmins == nil {
		g.CoAdmins = []string{}
	}
	return g, nil
}
