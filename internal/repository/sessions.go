package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/DocDesk/internal/models"
)

// PostgresSessionRepository keeps opaque login tokens in the sessions table.
type PostgresSessionRepository struct {
	DB *sql.DB
}

// NewPostgresSessionRepository creates a new PostgresSessionRepository.
func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{DB: db}
}

// CreateSession stores token for userID until expiresAt.
func (r *PostgresSessionRepository) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		token, userID, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSessionUser resolves a token that has not expired at now to its user.
func (r *PostgresSessionRepository) GetSessionUser(ctx context.Context, token string, now time.Time) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.email, u.role, u.photo
		  FROM sessions s
		  JOIN users u ON u.id = s.user_id
		 WHERE s.token = $1 AND s.expires_at > $2
	`, token, now).Scan(&u.ID, &u.Name, &u.Email, &role, &u.Photo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetSessionUser: %w", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}

// DeleteSession revokes token. Deleting an unknown token is not an error.
func (r *PostgresSessionRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
