package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/crucial707/todo-api/internal/auth"
	"github.com/crucial707/todo-api/internal/db"
	"github.com/crucial707/todo-api/internal/metrics"
	"github.com/crucial707/todo-api/internal/models"
	"github.com/crucial707/todo-api/internal/repo"
	"github.com/jmoiron/sqlx"
)

const (
	DefaultListOffset = 0
	DefaultListLimit  = 10
)

// TodoService runs todo CRUD for an authenticated caller. Any authenticated
// caller may read or change any todo; the identity is only required and logged.
type TodoService struct {
	DB *sqlx.DB
}

func NewTodoService(database *sqlx.DB) *TodoService {
	return &TodoService{DB: database}
}

func (s *TodoService) Create(ctx context.Context, who auth.Identity, title string, description *string) (*models.Todo, error) {
	if who.IsZero() {
		return nil, ErrUnauthorized
	}

	var todo *models.Todo
	err := db.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var err error
		todo, err = repo.NewTodoRepo(tx).Create(ctx, title, description)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.IncTodoOperation("create")
	slog.InfoContext(ctx, "todo created", "todo_id", todo.ID, "by", who.Username)
	return todo, nil
}

// List returns one page of todos in insertion order.
func (s *TodoService) List(ctx context.Context, who auth.Identity, offset, limit int) ([]models.Todo, error) {
	if who.IsZero() {
		return nil, ErrUnauthorized
	}

	var todos []models.Todo
	err := db.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var err error
		todos, err = repo.NewTodoRepo(tx).List(ctx, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.IncTodoOperation("list")
	return todos, nil
}

func (s *TodoService) Get(ctx context.Context, who auth.Identity, id int) (*models.Todo, error) {
	if who.IsZero() {
		return nil, ErrUnauthorized
	}

	var todo *models.Todo
	err := db.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var err error
		todo, err = repo.NewTodoRepo(tx).GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, mapNotFound(err)
	}

	metrics.IncTodoOperation("get")
	return todo, nil
}

// Update overwrites the provided fields of the todo; the id is never changed.
func (s *TodoService) Update(ctx context.Context, who auth.Identity, id int, patch models.TodoPatch) (*models.Todo, error) {
	if who.IsZero() {
		return nil, ErrUnauthorized
	}

	var todo *models.Todo
	err := db.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var err error
		todo, err = repo.NewTodoRepo(tx).Update(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, mapNotFound(err)
	}

	metrics.IncTodoOperation("update")
	slog.InfoContext(ctx, "todo updated", "todo_id", todo.ID, "by", who.Username)
	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, who auth.Identity, id int) error {
	if who.IsZero() {
		return ErrUnauthorized
	}

	err := db.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		return repo.NewTodoRepo(tx).Delete(ctx, id)
	})
	if err != nil {
		return mapNotFound(err)
	}

	metrics.IncTodoOperation("delete")
	slog.InfoContext(ctx, "todo deleted", "todo_id", id, "by", who.Username)
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
