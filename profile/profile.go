package profile

import (
	"context"
	"time"
)

type Profile struct {
	ID           int64     `json:"profile_id"`
	Name         string    `json:"profile_name"`
	Email        string    `json:"email"`
	Picture      *string   `json:"picture"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"date_created"`
}

type Repository interface {
	Register(ctx context.Context, name, email, password string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	GetByID(ctx context.Context, id int64) (*Profile, error)
	VerifyPassword(hashedPassword, password string) error
	UpdateName(ctx context.Context, profileID int64, name string) error
	UpdatePicture(ctx context.Context, profileID int64, picture string) error
}
