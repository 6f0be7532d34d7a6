package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type RoleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// EnsureRole grants role to the user. Granting an existing role is a no-op.
func (r *RoleRepository) EnsureRole(ctx context.Context, userID uuid.UUID, role string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING`, userID, role)
	if err != nil {
		return fmt.Errorf("ensure role %s: %w", role, err)
	}
	return nil
}

func (r *RoleRepository) Roles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("select roles: %w", err)
	}
	defer rows.Close()

	roles := make([]string, 0)
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// UserType reads profiles.user_type. A missing profile or a NULL type both
// come back as "".
func (r *RoleRepository) UserType(ctx context.Context, userID uuid.UUID) (string, error) {
	var userType sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT user_type FROM profiles WHERE id = $1`, userID).Scan(&userType)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select user type: %w", err)
	}
	return userType.String, nil
}
