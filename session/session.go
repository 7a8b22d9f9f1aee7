package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session expired")
)

const (
	sessionDuration = 7 * 24 * time.Hour
	CookieName      = "session_token"
)

type Session struct {
	ID        uuid.UUID
	ProfileID int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, profileID int64) (*Session, error)
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByProfileID(ctx context.Context, profileID int64) error
}

// Cookie builds the session cookie for a freshly created session.
func Cookie(s *Session) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie clears the session cookie on logout or invalid sessions.
func ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:   CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	}
}
