package postgres

import (
	"context"
	"database/sql"
	"errors"

	"basketbolista/internal/domain"
)

type registrationRepository struct {
	DB *sql.DB
}

func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{
		DB: db,
	}
}

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	query := `
		INSERT INTO registrations (event_id, name, email, pin_hash, owner_uid, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, seq
	`
	return r.DB.QueryRowContext(ctx, query,
		reg.EventID, reg.Name, reg.Email, reg.PINHash, reg.OwnerUID, reg.Paid, reg.CreatedAt,
	).Scan(&reg.ID, &reg.Seq)
}

func (r *registrationRepository) GetByID(ctx context.Context, eventID, id string) (*domain.Registration, error) {
	query := `
		SELECT id, event_id, name, email, pin_hash, owner_uid, paid, created_at, seq
		FROM registrations
		WHERE event_id = $1 AND id = $2
	`
	reg := &domain.Registration{}
	err := r.DB.QueryRowContext(ctx, query, eventID, id).Scan(
		&reg.ID, &reg.EventID, &reg.Name, &reg.Email, &reg.PINHash,
		&reg.OwnerUID, &reg.Paid, &reg.CreatedAt, &reg.Seq,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

// ListByEventID returns the full ledger in rank order. seq breaks timestamp
// ties so the first-written registration keeps the earlier rank.
func (r *registrationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	query := `
		SELECT id, event_id, name, email, pin_hash, owner_uid, paid, created_at, seq
		FROM registrations
		WHERE event_id = $1
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []*domain.Registration
	for rows.Next() {
		reg := &domain.Registration{}
		if err := rows.Scan(
			&reg.ID, &reg.EventID, &reg.Name, &reg.Email, &reg.PINHash,
			&reg.OwnerUID, &reg.Paid, &reg.CreatedAt, &reg.Seq,
		); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	return regs, nil
}

func (r *registrationRepository) Delete(ctx context.Context, eventID, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM registrations WHERE event_id = $1 AND id = $2`, eventID, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *registrationRepository) SetPaid(ctx context.Context, eventID, id string, paid bool) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE registrations SET paid = $1 WHERE event_id = $2 AND id = $3`,
		paid, eventID, id,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
