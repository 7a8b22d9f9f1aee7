package chore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyName     = errors.New("chore name can't be empty")
	ErrNoAssignees   = errors.New("at least one assignee is required")
	ErrBadStatus     = errors.New("status must be pending or completed")
	ErrNotFound      = errors.New("chore not found")
	ErrGroupNotFound = errors.New("group not found")
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type Chore struct {
	ID           int64      `json:"chore_id"`
	GroupID      int64      `json:"group_id"`
	Name         string     `json:"name"`
	AssignedDate time.Time  `json:"assigned_date"`
	DueDate      *time.Time `json:"due_date"`
	Notes        *string    `json:"notes"`
	Assignees    []Assignee `json:"assignees"`
}

type Assignee struct {
	ProfileID int64  `json:"profile_id"`
	Name      string `json:"profile_name"`
	Status    string `json:"individual_status"`
}

type Repository interface {
	Create(ctx context.Context, groupID int64, name string, dueDate *time.Time, notes *string, assigneeIDs []int64) (*Chore, error)
	ForGroup(ctx context.Context, groupID int64) ([]Chore, error)
	SetStatus(ctx context.Context, choreID, profileID int64, status string) error
	Delete(ctx context.Context, choreID int64) (bool, error)
}
