package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crucial707/todo-api/internal/models"
	"github.com/jmoiron/sqlx"
)

// ========================
// REPOSITORY STRUCT
// ========================

type TodoRepo struct {
	DB sqlx.ExtContext
}

func NewTodoRepo(db sqlx.ExtContext) *TodoRepo {
	return &TodoRepo{DB: db}
}

// ========================
// CREATE TODO
// ========================

func (r *TodoRepo) Create(ctx context.Context, title string, description *string) (*models.Todo, error) {
	query := r.DB.Rebind(`
		INSERT INTO todos (title, description)
		VALUES (?, ?)
		RETURNING id, title, description
	`)

	todo := &models.Todo{}
	if err := sqlx.GetContext(ctx, r.DB, todo, query, title, description); err != nil {
		return nil, err
	}
	return todo, nil
}

// ========================
// GET TODO BY ID
// ========================

func (r *TodoRepo) GetByID(ctx context.Context, id int) (*models.Todo, error) {
	query := r.DB.Rebind(`SELECT id, title, description FROM todos WHERE id = ?`)

	todo := &models.Todo{}
	err := sqlx.GetContext(ctx, r.DB, todo, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// ========================
// LIST TODOS WITH PAGINATION
// ========================

// List returns up to limit todos after skipping offset, in insertion (id) order.
// The result is never nil so it encodes as [] when empty.
func (r *TodoRepo) List(ctx context.Context, limit, offset int) ([]models.Todo, error) {
	query := r.DB.Rebind(`SELECT id, title, description FROM todos ORDER BY id LIMIT ? OFFSET ?`)

	todos := []models.Todo{}
	if err := sqlx.SelectContext(ctx, r.DB, &todos, query, limit, offset); err != nil {
		return nil, err
	}
	return todos, nil
}

// ========================
// UPDATE TODO BY ID
// ========================

// Update overwrites the non-nil fields of patch. The id never changes.
func (r *TodoRepo) Update(ctx context.Context, id int, patch models.TodoPatch) (*models.Todo, error) {
	query := r.DB.Rebind(`
		UPDATE todos
		SET title = COALESCE(?, title), description = COALESCE(?, description)
		WHERE id = ?
		RETURNING id, title, description
	`)

	todo := &models.Todo{}
	err := sqlx.GetContext(ctx, r.DB, todo, query, patch.Title, patch.Description, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// ========================
// DELETE TODO BY ID
// ========================

func (r *TodoRepo) Delete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM todos WHERE id = ?`), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
