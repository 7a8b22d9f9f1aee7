package event

import (
	"context"
	"database/sql"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, e *Event, attendeeIDs []int64) (*Event, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := insertEvent(ctx, tx, e, attendeeIDs); err != nil {
		return nil, err
	}

	return e, tx.Commit()
}

func insertEvent(ctx context.Context, tx *sql.Tx, e *Event, attendeeIDs []int64) error {
	insert := `
        INSERT INTO event (event_name, event_datetime_start, event_datetime_end, event_location, event_notes, group_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING event_id
    `
	err := tx.QueryRowContext(ctx, insert,
		e.Name,
		e.Start,
		e.End,
		e.Location,
		e.Notes,
		e.GroupID,
	).Scan(&e.ID)
	if err != nil {
		return err
	}

	// Duplicate attendee registration is a no-op, not an error.
	addAttendee := `
        INSERT INTO profile_event (profile_id, event_id)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING
    `
	for _, profileID := range attendeeIDs {
		if _, err := tx.ExecContext(ctx, addAttendee, profileID, e.ID); err != nil {
			return err
		}
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, eventID int64) (*Event, error) {
	query := `
        SELECT event_id, event_name, event_datetime_start, event_datetime_end, event_location, event_notes, group_id
        FROM event
        WHERE event_id = $1
    `

	var e Event
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(
		&e.ID,
		&e.Name,
		&e.Start,
		&e.End,
		&e.Location,
		&e.Notes,
		&e.GroupID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &e, nil
}

func (r *repository) ForGroup(ctx context.Context, groupID int64) ([]Event, error) {
	query := `
        SELECT event_id, event_name, event_datetime_start, event_datetime_end, event_location, event_notes, group_id
        FROM event
        WHERE group_id = $1
        ORDER BY event_datetime_start ASC
    `

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Start, &e.End, &e.Location, &e.Notes, &e.GroupID); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *repository) Delete(ctx context.Context, eventID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM event WHERE event_id = $1`, eventID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *repository) AddAttendee(ctx context.Context, eventID, profileID int64) error {
	query := `
        INSERT INTO profile_event (profile_id, event_id)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING
    `
	_, err := r.db.ExecContext(ctx, query, profileID, eventID)
	return err
}

func (r *repository) AttendeeIDs(ctx context.Context, eventID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT profile_id FROM profile_event WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// CreateBatch inserts every event and its attendees in one transaction; a
// single failure rolls back the whole batch.
func (r *repository) CreateBatch(ctx context.Context, events []Event, attendeeIDs []int64) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for i := range events {
		if err := insertEvent(ctx, tx, &events[i], attendeeIDs); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(events), nil
}

func (r *repository) DeleteByLocation(ctx context.Context, location string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM event WHERE event_location = $1`, location)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
