package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/agendadocs/agenda-server/internal/models"
)

// User repository methods
func (r *SQLiteRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password, role, created_at, last_password_change)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Username, user.Password, user.Role, user.CreatedAt, user.LastPasswordChange)
	if err != nil {
		return err
	}

	user.ID, err = res.LastInsertId()
	return err
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getUser(ctx, `SELECT * FROM users WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUser(ctx, `SELECT * FROM users WHERE username = ?`, username)
}

func (r *SQLiteRepository) GetUserByUsernameCI(ctx context.Context, username string) (*models.User, error) {
	return r.getUser(ctx, `SELECT * FROM users WHERE lower(username) = lower(?)`, username)
}

func (r *SQLiteRepository) GetUserByUsernameAndRole(ctx context.Context, username, role string) (*models.User, error) {
	return r.getUser(ctx,
		`SELECT * FROM users WHERE lower(username) = lower(?) AND role = ?`, username, role)
}

func (r *SQLiteRepository) GetFirstUserByRole(ctx context.Context, role string) (*models.User, error) {
	return r.getUser(ctx,
		`SELECT * FROM users WHERE role = ? ORDER BY id ASC LIMIT 1`, role)
}

func (r *SQLiteRepository) getUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}
	return &user, nil
}

func (r *SQLiteRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}

// ListUsers returns all users ordered by role rank then creation time.
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `
		SELECT * FROM users
		ORDER BY
			CASE role
				WHEN 'superadmin' THEN 1
				WHEN 'admin' THEN 2
				WHEN 'reader' THEN 3
			END,
			created_at, id
	`)
	return users, err
}

// UpdateUserPassword overwrites the stored hash and stamps
// last_password_change.
func (r *SQLiteRepository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password = ?, last_password_change = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id)
	return err
}

func (r *SQLiteRepository) UpdateUsername(ctx context.Context, id int64, username string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = ? WHERE id = ?`, username, id)
	return err
}

func (r *SQLiteRepository) UpdateUserRole(ctx context.Context, id int64, role string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE id = ?`, role, id)
	return err
}
