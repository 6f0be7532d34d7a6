package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"course_market_backend/models"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts the user and its profile together.
func (r *UserRepository) CreateUser(ctx context.Context, email, passwordHash, fullName, userType string) (uuid.UUID, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var userID uuid.UUID
	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id`,
		email, passwordHash,
	).Scan(&userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return uuid.Nil, ErrEmailTaken
		}
		return uuid.Nil, fmt.Errorf("insert user: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (id, full_name, user_type) VALUES ($1, $2, $3)`,
		userID, fullName, userType,
	); err != nil {
		return uuid.Nil, fmt.Errorf("insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}
	return userID, nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Info(ctx context.Context, userID uuid.UUID) (models.UserInfo, error) {
	info := models.UserInfo{Roles: make([]string, 0)}
	var fullName, userType sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, p.full_name, p.user_type
		FROM users u
		LEFT JOIN profiles p ON p.id = u.id
		WHERE u.id = $1`, userID,
	).Scan(&info.ID, &info.Email, &fullName, &userType)
	if errors.Is(err, sql.ErrNoRows) {
		return info, ErrUserNotFound
	}
	if err != nil {
		return info, fmt.Errorf("select user info: %w", err)
	}
	info.FullName = fullName.String
	if userType.Valid {
		info.UserType = &userType.String
	}
	return info, nil
}
