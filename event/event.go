package event

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyName    = errors.New("event name can't be empty")
	ErrMissingStart = errors.New("event start time is required")
)

type Event struct {
	ID       int64      `json:"event_id"`
	Name     string     `json:"event_name"`
	Start    time.Time  `json:"event_datetime_start"`
	End      *time.Time `json:"event_datetime_end"`
	Location *string    `json:"event_location"`
	Notes    *string    `json:"event_notes"`
	GroupID  *int64     `json:"group_id"`
}

type Repository interface {
	// Create inserts the event and registers the given attendees in one
	// transaction.
	Create(ctx context.Context, e *Event, attendeeIDs []int64) (*Event, error)
	GetByID(ctx context.Context, eventID int64) (*Event, error)
	ForGroup(ctx context.Context, groupID int64) ([]Event, error)
	Delete(ctx context.Context, eventID int64) (bool, error)
	AddAttendee(ctx context.Context, eventID, profileID int64) error
	AttendeeIDs(ctx context.Context, eventID int64) ([]int64, error)

	// CreateBatch inserts a series of events, each attended by every given
	// profile, in one transaction. Used by the expense recurrence expander.
	CreateBatch(ctx context.Context, events []Event, attendeeIDs []int64) (int, error)
	// DeleteByLocation removes every event whose location field equals the
	// given marker and returns the number removed.
	DeleteByLocation(ctx context.Context, location string) (int64, error)
}

func (e *Event) Validate() error {
	if e.Name == "" {
		return ErrEmptyName
	}
	if e.Start.IsZero() {
		return ErrMissingStart
	}
	return nil
}
