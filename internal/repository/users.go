package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/DocDesk/internal/models"
)

// PostgresUserRepository stores accounts in the users table.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// CreateUser inserts u. Doctor accounts get an empty profile row in the
// same transaction so the profile can be edited right after registration.
// A taken e-mail yields ErrDuplicate.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, u *models.User) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role, photo, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Name, u.Email, string(u.Role), u.Photo, u.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user %s: %w", u.Email, ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}

	if u.Role == models.RoleDoctor {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO doctors (id, name, email, photo) VALUES ($1, $2, $3, $4)
		`, u.ID, u.Name, u.Email, u.Photo)
		if err != nil {
			return fmt.Errorf("create doctor profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetUserByEmail returns the account registered with email.
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, email, role, photo, password_hash FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Name, &u.Email, &role, &u.Photo, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetUserByEmail: %w", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}
