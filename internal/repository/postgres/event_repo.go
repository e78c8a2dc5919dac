package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"basketbolista/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, group_id, date, start_time, end_time, venue, capacity, pay_to, is_open_for_registration, created_at, updated_at`

func scanEvent(row interface{ Scan(dest ...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	err := row.Scan(
		&e.ID, &e.GroupID, &e.Date, &e.StartTime, &e.EndTime, &e.Venue,
		&e.Capacity, &e.PayTo, &e.IsOpenForRegistration, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (group_id, date, start_time, end_time, venue, capacity, pay_to, is_open_for_registration, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.GroupID, e.Date, e.StartTime, e.EndTime, e.Venue,
		e.Capacity, e.PayTo, e.IsOpenForRegistration, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`
	return scanEvent(r.DB.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) GetByShareParams(ctx context.Context, p domain.ShareLinkParams) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE group_id = $1 AND date = $2 AND venue = $3 AND start_time = $4 AND end_time = $5
	`
	return scanEvent(r.DB.QueryRowContext(ctx, query, p.GroupID, p.Date, p.Venue, p.StartTime, p.EndTime))
}

func (r *eventRepository) ExistsSlot(ctx context.Context, groupID string, date time.Time, venue, startTime string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM events
			WHERE group_id = $1 AND date = $2 AND venue = $3 AND start_time = $4
		)
	`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, groupID, date, venue, startTime).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *eventRepository) ListByGroupID(ctx context.Context, groupID string, p domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE group_id = $1`, groupID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE group_id = $1
		ORDER BY date DESC, start_time DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, groupID, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	add := func(col string, v interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, v)
		n++
	}
	if upd.Date != nil {
		add("date", *upd.Date)
	}
	if upd.StartTime != nil {
		add("start_time", *upd.StartTime)
	}
	if upd.EndTime != nil {
		add("end_time", *upd.EndTime)
	}
	if upd.Venue != nil {
		add("venue", *upd.Venue)
	}
	if upd.Capacity != nil {
		add("capacity", *upd.Capacity)
	}
	if upd.PayTo != nil {
		add("pay_to", *upd.PayTo)
	}
	if upd.IsOpenForRegistration != nil {
		add("is_open_for_registration", *upd.IsOpenForRegistration)
	}
	if n == 1 {
		// No fields to update; just fetch the current row.
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d
		RETURNING `+eventColumns+`
	`, strings.Join(setClauses, ", "), n)
	return scanEvent(r.DB.QueryRowContext(ctx, query, args...))
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
