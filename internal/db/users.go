package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/hiring-pipeline/internal/types"
)

// User is a stored account.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         types.Role `json:"role"`
	PasswordHash string     `json:"-"` // Never serialize to JSON
	CreatedAt    time.Time  `json:"created_at"`
}

// CreateUser inserts a user and returns its ID.
func (db *DB) CreateUser(ctx context.Context, name, email string, role types.Role, passwordHash string) (string, error) {
	id := uuid.NewString()
	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, role, password_hash) VALUES ($1, $2, $3, $4, $5)`,
		id, name, normalizeEmail(email), string(role), passwordHash,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUser retrieves a user by ID. Returns nil, nil if not found.
func (db *DB) GetUser(ctx context.Context, id string) (*User, error) {
	return db.queryUser(ctx, `WHERE id = $1`, id)
}

// GetUserByEmail retrieves a user by email. Returns nil, nil if not found.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil
	}
	return db.queryUser(ctx, `WHERE email = $1`, normalizeEmail(email))
}

func (db *DB) queryUser(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	var role string
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, email, role, password_hash, created_at FROM users `+where, arg,
	).Scan(&u.ID, &u.Name, &u.Email, &role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Role = types.Role(role)
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
