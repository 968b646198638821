// Package ports defines the interfaces (driven and driving ports)
// for pulse following hexagonal architecture principles.
// These interfaces define the contracts between the domain and services
// layers and external infrastructure.
package ports

import (
	"context"

	"github.com/xvierd/pulse-cli/internal/domain"
)

// TaskRepository defines the interface for task persistence.
// This is a driven port (implemented by adapters).
type TaskRepository interface {
	// Save persists a new task.
	Save(ctx context.Context, task *domain.Task) error

	// FindByID retrieves a task by its unique identifier.
	FindByID(ctx context.Context, id string) (*domain.Task, error)

	// FindAll returns every task in insertion order.
	FindAll(ctx context.Context) ([]*domain.Task, error)

	// Search returns tasks whose text fuzzy-matches the query, best first.
	Search(ctx context.Context, query string) ([]*domain.Task, error)

	// Update modifies an existing task.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task.
	Delete(ctx context.Context, id string) error

	// DeleteCompleted removes all completed tasks and returns how many.
	DeleteCompleted(ctx context.Context) (int, error)
}

// TokenStore is a small string key/value store for OAuth tokens.
// This is a driven port (implemented by adapters).
type TokenStore interface {
	// Get returns the value for key or domain.ErrTokenNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// Storage is the combined repository interface.
// This is a driven port (implemented by adapters).
type Storage interface {
	// Tasks provides access to task operations.
	Tasks() TaskRepository

	// Tokens provides access to the token store.
	Tokens() TokenStore

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate() error
}
