package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crucial707/todo-api/internal/models"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB sqlx.ExtContext
}

// ==========================
// Constructor
// ==========================
// NewUserRepo accepts either the pool or a transaction.
func NewUserRepo(db sqlx.ExtContext) *UserRepo {
	return &UserRepo{DB: db}
}

// ==========================
// Create User
// ==========================
func (r *UserRepo) Create(ctx context.Context, username, passwordHash string) (*models.User, error) {
	query := r.DB.Rebind(`
		INSERT INTO users (username, password_hash)
		VALUES (?, ?)
		RETURNING id, username, password_hash
	`)

	user := &models.User{}
	if err := sqlx.GetContext(ctx, r.DB, user, query, username, passwordHash); err != nil {
		return nil, err
	}
	return user, nil
}

// ==========================
// Get By Username
// ==========================
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := r.DB.Rebind(`
		SELECT id, username, password_hash
		FROM users
		WHERE username = ?
	`)
	return r.getOne(ctx, query, username)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := sqlx.GetContext(ctx, r.DB, user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
