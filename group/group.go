package group

import (
	"context"
	"crypto/rand"
	"errors"
	"time"
)

var (
	ErrEmptyName       = errors.New("group name can't be empty")
	ErrInvalidJoinCode = errors.New("invalid join code")
	ErrNotFound        = errors.New("group not found")
)

type Group struct {
	ID        int64     `json:"group_id"`
	Name      string    `json:"group_name"`
	Photo     *string   `json:"group_photo"`
	JoinCode  string    `json:"join_code"`
	CreatedAt time.Time `json:"date_created"`
}

type Member struct {
	ProfileID int64     `json:"profile_id"`
	Name      string    `json:"profile_name"`
	Picture   *string   `json:"picture"`
	JoinedAt  time.Time `json:"joined_at"`
}

type Repository interface {
	Create(ctx context.Context, name string, photo *string, creatorID int64) (*Group, error)
	JoinByCode(ctx context.Context, joinCode string, profileID int64) (*Group, error)
	GroupsForProfile(ctx context.Context, profileID int64) ([]Group, error)
	GetByID(ctx context.Context, groupID int64) (*Group, error)
	Members(ctx context.Context, groupID int64) ([]Member, error)
	MemberIDs(ctx context.Context, groupID int64) ([]int64, error)
	IsMember(ctx context.Context, groupID, profileID int64) (bool, error)
	Leave(ctx context.Context, groupID, profileID int64) error
}

const joinCodeLength = 8

// Unambiguous uppercase alphabet for invite codes.
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewJoinCode generates a random invite code for a group.
func NewJoinCode() (string, error) {
	b := make([]byte, joinCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = joinCodeAlphabet[int(b[i])%len(joinCodeAlphabet)]
	}
	return string(b), nil
}
