package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/avdeevko/cropguard/internal/logger"
	"github.com/avdeevko/cropguard/internal/middlewares"
	"github.com/avdeevko/cropguard/internal/models"
)

// ErrDuplicateUser is returned when an insert collides with an existing username.
var ErrDuplicateUser = errors.New("user already exists")

// UserReadRepository provides read access to the users table.
type UserReadRepository struct {
	db *sqlx.DB
}

// NewUserReadRepository creates a new UserReadRepository.
func NewUserReadRepository(db *sqlx.DB) *UserReadRepository {
	return &UserReadRepository{db: db}
}

// querier prefers the request transaction over the pool. The pool allows a
// single open connection, so a query outside the transaction would block
// until the transaction finishes.
func (r *UserReadRepository) querier(ctx context.Context) sqlx.QueryerContext {
	if tx := middlewares.GetTxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

// GetByUsername returns the user record for the given username,
// or nil when no such user exists.
func (r *UserReadRepository) GetByUsername(ctx context.Context, username string) (*models.UserDB, error) {
	const query = `
		SELECT user_id, username, email, password_hash, created_at
		FROM users
		WHERE username = ?
		LIMIT 1
	`

	var user models.UserDB
	err := sqlx.GetContext(ctx, r.querier(ctx), &user, query, username)

	logger.Log.Infow("user read",
		"query", strings.Join(strings.Fields(query), " "),
		"username", username,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Exists reports whether a user with the given username is already stored.
func (r *UserReadRepository) Exists(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)`

	var exists bool
	err := sqlx.GetContext(ctx, r.querier(ctx), &exists, query, username)

	logger.Log.Infow("user exists",
		"username", username,
		"result", exists,
		"error", err,
	)

	return exists, err
}

// Count returns the total number of registered users.
func (r *UserReadRepository) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM users`

	var count int64
	err := sqlx.GetContext(ctx, r.querier(ctx), &count, query)

	logger.Log.Infow("user count",
		"result", count,
		"error", err,
	)

	return count, err
}

// UserWriteRepository provides write access to the users table.
type UserWriteRepository struct {
	db *sqlx.DB
}

// NewUserWriteRepository creates a new UserWriteRepository.
func NewUserWriteRepository(db *sqlx.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

// Save inserts a new user record. Usernames are immutable: a collision is
// reported as ErrDuplicateUser, never resolved by update.
func (r *UserWriteRepository) Save(ctx context.Context, username, passwordHash, email string) error {
	const query = `
		INSERT INTO users (user_id, username, email, password_hash)
		VALUES (?, ?, ?, ?)
	`
	args := []any{uuid.New().String(), username, email, passwordHash}

	var execer sqlx.ExtContext = r.db
	if tx := middlewares.GetTxFromContext(ctx); tx != nil {
		execer = tx
	}

	res, err := execer.ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.Log.Infow("user save",
		"query", strings.Join(strings.Fields(query), " "),
		"username", username,
		"result", rowsAffected,
		"error", err,
	)

	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateUser
	}

	return err
}
