package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/homebase-app/homebase/database"
)

var (
	ErrEmailExists   = errors.New("email already exists")
	ErrInvalidEmail  = errors.New("invalid email format")
	ErrBlankPassword = errors.New("password can't be blank")
	ErrBlankName     = errors.New("name can't be blank")
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) Register(ctx context.Context, name, email, password string) (*Profile, error) {
	if name == "" {
		return nil, ErrBlankName
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if password == "" {
		return nil, ErrBlankPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	p := &Profile{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
	}

	query := `
        INSERT INTO profile (profile_name, email, password_hash, date_created)
        VALUES ($1, $2, $3, $4)
        RETURNING profile_id
    `
	err = r.db.QueryRowContext(ctx, query, p.Name, p.Email, p.PasswordHash, p.CreatedAt).Scan(&p.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("inserting profile: %w", err)
	}

	return p, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	query := `
        SELECT profile_id, profile_name, email, password_hash, picture, date_created
        FROM profile
        WHERE email = $1
    `

	var p Profile
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.PasswordHash,
		&p.Picture,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	return &p, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Profile, error) {
	query := `
        SELECT profile_id, profile_name, email, password_hash, picture, date_created
        FROM profile
        WHERE profile_id = $1
    `

	var p Profile
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.PasswordHash,
		&p.Picture,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *repository) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func (r *repository) UpdateName(ctx context.Context, profileID int64, name string) error {
	if name == "" {
		return ErrBlankName
	}
	query := `UPDATE profile SET profile_name = $1 WHERE profile_id = $2`
	_, err := r.db.ExecContext(ctx, query, name, profileID)
	return err
}

func (r *repository) UpdatePicture(ctx context.Context, profileID int64, picture string) error {
	query := `UPDATE profile SET picture = $1 WHERE profile_id = $2`
	_, err := r.db.ExecContext(ctx, query, picture, profileID)
	return err
}
