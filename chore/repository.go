package chore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/homebase-app/homebase/database"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

// Create inserts the chore and all assignee rows in one transaction.
func (r *repository) Create(ctx context.Context, groupID int64, name string, dueDate *time.Time, notes *string, assigneeIDs []int64) (*Chore, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if len(assigneeIDs) == 0 {
		return nil, ErrNoAssignees
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c := &Chore{GroupID: groupID, Name: name, DueDate: dueDate, Notes: notes}

	insertChore := `
        INSERT INTO chore (group_id, name, due_date, notes)
        VALUES ($1, $2, $3, $4)
        RETURNING chore_id, assigned_date
    `
	err = tx.QueryRowContext(ctx, insertChore, groupID, name, dueDate, notes).Scan(&c.ID, &c.AssignedDate)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("inserting chore: %w", err)
	}

	insertAssignee := `
        INSERT INTO chore_assignee (profile_id, chore_id)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING
    `
	for _, profileID := range assigneeIDs {
		if _, err := tx.ExecContext(ctx, insertAssignee, profileID, c.ID); err != nil {
			return nil, fmt.Errorf("inserting chore assignee: %w", err)
		}
		c.Assignees = append(c.Assignees, Assignee{ProfileID: profileID, Status: StatusPending})
	}

	return c, tx.Commit()
}

func (r *repository) ForGroup(ctx context.Context, groupID int64) ([]Chore, error) {
	query := `
        SELECT chore_id, group_id, name, assigned_date, due_date, notes
        FROM chore
        WHERE group_id = $1
        ORDER BY assigned_date DESC
    `

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chores := make([]Chore, 0)
	for rows.Next() {
		var (
			c     Chore
			due   sql.NullTime
			notes sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.GroupID, &c.Name, &c.AssignedDate, &due, &notes); err != nil {
			return nil, err
		}
		if due.Valid {
			c.DueDate = &due.Time
		}
		if notes.Valid {
			c.Notes = &notes.String
		}
		chores = append(chores, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range chores {
		assignees, err := r.assignees(ctx, chores[i].ID)
		if err != nil {
			return nil, err
		}
		chores[i].Assignees = assignees
	}

	return chores, nil
}

func (r *repository) assignees(ctx context.Context, choreID int64) ([]Assignee, error) {
	query := `
        SELECT ca.profile_id, p.profile_name, ca.individual_status
        FROM chore_assignee ca
        INNER JOIN profile p ON ca.profile_id = p.profile_id
        WHERE ca.chore_id = $1
        ORDER BY p.profile_name ASC
    `

	rows, err := r.db.QueryContext(ctx, query, choreID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignees := make([]Assignee, 0)
	for rows.Next() {
		var a Assignee
		if err := rows.Scan(&a.ProfileID, &a.Name, &a.Status); err != nil {
			return nil, err
		}
		assignees = append(assignees, a)
	}

	return assignees, rows.Err()
}

func (r *repository) SetStatus(ctx context.Context, choreID, profileID int64, status string) error {
	if status != StatusPending && status != StatusCompleted {
		return ErrBadStatus
	}

	query := `
        UPDATE chore_assignee
        SET individual_status = $3
        WHERE chore_id = $1 AND profile_id = $2
    `
	result, err := r.db.ExecContext(ctx, query, choreID, profileID, status)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, choreID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM chore WHERE chore_id = $1`, choreID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
