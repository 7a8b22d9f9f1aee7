package group

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

// Create inserts the group and its creator's membership in one transaction.
// Join-code collisions are retried a few times before giving up.
func (r *repository) Create(ctx context.Context, name string, photo *string, creatorID int64) (*Group, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	const maxAttempts = 5
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := NewJoinCode()
		if err != nil {
			return nil, fmt.Errorf("generating join code: %w", err)
		}

		g, err := r.create(ctx, name, photo, code, creatorID)
		if err != nil {
			if database.IsUniqueViolation(err) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return g, nil
	}
	return nil, fmt.Errorf("creating group: %w", lastErr)
}

func (r *repository) create(ctx context.Context, name string, photo *string, joinCode string, creatorID int64) (*Group, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	g := &Group{
		Name:      name,
		Photo:     photo,
		JoinCode:  joinCode,
		CreatedAt: time.Now().UTC(),
	}

	insertGroup := `
        INSERT INTO household_group (group_name, group_photo, join_code, date_created)
        VALUES ($1, $2, $3, $4)
        RETURNING group_id
    `
	err = tx.QueryRowContext(ctx, insertGroup, g.Name, g.Photo, g.JoinCode, g.CreatedAt).Scan(&g.ID)
	if err != nil {
		return nil, err
	}

	insertMember := `INSERT INTO group_profile (group_id, profile_id) VALUES ($1, $2)`
	_, err = tx.ExecContext(ctx, insertMember, g.ID, creatorID)
	if err != nil {
		return nil, err
	}

	return g, tx.Commit()
}

// JoinByCode adds the profile to the group with the given invite code.
// Joining a group you already belong to is a no-op.
func (r *repository) JoinByCode(ctx context.Context, joinCode string, profileID int64) (*Group, error) {
	query := `
        SELECT group_id, group_name, group_photo, join_code, date_created
        FROM household_group
        WHERE join_code = $1
    `

	var g Group
	err := r.db.QueryRowContext(ctx, query, joinCode).Scan(
		&g.ID,
		&g.Name,
		&g.Photo,
		&g.JoinCode,
		&g.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidJoinCode
	}
	if err != nil {
		return nil, err
	}

	insert := `
        INSERT INTO group_profile (group_id, profile_id)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING
    `
	if _, err := r.db.ExecContext(ctx, insert, g.ID, profileID); err != nil {
		return nil, err
	}

	return &g, nil
}

func (r *repository) GroupsForProfile(ctx context.Context, profileID int64) ([]Group, error) {
	query := `
        SELECT g.group_id, g.group_name, g.group_photo, g.join_code, g.date_created
        FROM household_group g
        INNER JOIN group_profile gp ON g.group_id = gp.group_id
        WHERE gp.profile_id = $1
        ORDER BY g.date_created ASC
    `

	rows, err := r.db.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]Group, 0)
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Photo, &g.JoinCode, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	return groups, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, groupID int64) (*Group, error) {
	query := `
        SELECT group_id, group_name, group_photo, join_code, date_created
        FROM household_group
        WHERE group_id = $1
    `

	var g Group
	err := r.db.QueryRowContext(ctx, query, groupID).Scan(&g.ID, &g.Name, &g.Photo, &g.JoinCode, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &g, nil
}

func (r *repository) Members(ctx context.Context, groupID int64) ([]Member, error) {
	query := `
        SELECT p.profile_id, p.profile_name, p.picture, gp.joined_at
        FROM group_profile gp
        INNER JOIN profile p ON gp.profile_id = p.profile_id
        WHERE gp.group_id = $1
        ORDER BY gp.joined_at ASC
    `

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ProfileID, &m.Name, &m.Picture, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

func (r *repository) MemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	query := `SELECT profile_id FROM group_profile WHERE group_id = $1`

	rows, err := r.db.QueryContext(ctx, query, groupID)
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

func (r *repository) IsMember(ctx context.Context, groupID, profileID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM group_profile WHERE group_id = $1 AND profile_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, groupID, profileID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *repository) Leave(ctx context.Context, groupID, profileID int64) error {
	query := `DELETE FROM group_profile WHERE group_id = $1 AND profile_id = $2`
	_, err := r.db.ExecContext(ctx, query, groupID, profileID)
	return err
}
