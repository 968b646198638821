package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/xvierd/pulse-cli/internal/domain"
	"github.com/xvierd/pulse-cli/internal/ports"
)

// taskRepository implements ports.TaskRepository using SQLite.
type taskRepository struct {
	db *sql.DB
}

// newTaskRepository creates a new task repository.
func newTaskRepository(db *sql.DB) ports.TaskRepository {
	return &taskRepository{db: db}
}

const selectTasks = `SELECT id, text, completed, created_at FROM tasks`

// Save persists a task to storage.
func (r *taskRepository) Save(ctx context.Context, task *domain.Task) error {
	query := `INSERT INTO tasks (id, text, completed, created_at) VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, task.ID, task.Text, task.Completed, task.CreatedAt)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: %s already exists", domain.ErrInvalidTaskID, task.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	return nil
}

// FindByID retrieves a task by its unique identifier.
func (r *taskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, selectTasks+` WHERE id = ?`, id)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// FindAll returns every task, oldest first.
func (r *taskRepository) FindAll(ctx context.Context) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, selectTasks+` ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// Search does a fuzzy search over task text.
func (r *taskRepository) Search(ctx context.Context, query string) ([]*domain.Task, error) {
	tasks, err := r.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks for fuzzy search: %w", err)
	}

	texts := make([]string, len(tasks))
	for i, task := range tasks {
		texts[i] = task.Text
	}

	var result []*domain.Task
	for _, match := range fuzzy.Find(query, texts) {
		result = append(result, tasks[match.Index])
	}

	return result, nil
}

// Update modifies an existing task.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `UPDATE tasks SET text = ?, completed = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, task.Text, task.Completed, task.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return requireAffected(result, domain.ErrTaskNotFound)
}

// Delete removes a task from storage.
func (r *taskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return requireAffected(result, domain.ErrTaskNotFound)
}

// DeleteCompleted removes every completed task.
func (r *taskRepository) DeleteCompleted(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE completed = 1`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete completed tasks: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*domain.Task, error) {
	var task domain.Task
	if err := s.Scan(&task.ID, &task.Text, &task.Completed, &task.CreatedAt); err != nil {
		return nil, err
	}
	return &task, nil
}

func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
