package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/xvierd/pulse-cli/internal/domain"
	"github.com/xvierd/pulse-cli/internal/ports"
)

// TaskService handles task-related use cases.
type TaskService struct {
	storage ports.Storage
	sink    ports.NotificationSink
	git     ports.BranchDetector
}

// NewTaskService creates a new task service. sink and git may be nil.
func NewTaskService(storage ports.Storage, sink ports.NotificationSink, git ports.BranchDetector) *TaskService {
	return &TaskService{storage: storage, sink: sink, git: git}
}

// AddTask creates a new task.
func (s *TaskService) AddTask(ctx context.Context, text string) (*domain.Task, error) {
	task, err := domain.NewTask(text)
	if err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	if err := s.storage.Tasks().Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	return task, nil
}

// AddTaskFromBranch creates a task named after the current git branch of
// workingDir, e.g. "feature/login-form" becomes "feature: login form".
func (s *TaskService) AddTaskFromBranch(ctx context.Context, workingDir string) (*domain.Task, error) {
	if s.git == nil {
		return nil, fmt.Errorf("git detection is not available")
	}
	branch, err := s.git.CurrentBranch(ctx, workingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to detect branch: %w", err)
	}
	return s.AddTask(ctx, branchTaskText(branch))
}

func branchTaskText(branch string) string {
	text := branch
	if prefix, rest, ok := strings.Cut(branch, "/"); ok && rest != "" {
		text = prefix + ": " + rest
	}
	return strings.NewReplacer("-", " ", "_", " ").Replace(text)
}

// ListTasks returns every task in insertion order.
func (s *TaskService) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	return s.storage.Tasks().FindAll(ctx)
}

// FindTasks returns tasks fuzzy-matching query, best first.
func (s *TaskService) FindTasks(ctx context.Context, query string) ([]*domain.Task, error) {
	if strings.TrimSpace(query) == "" {
		return s.ListTasks(ctx)
	}
	return s.storage.Tasks().Search(ctx, query)
}

// ResolveTask finds a task by exact ID or unique ID prefix.
func (s *TaskService) ResolveTask(ctx context.Context, ref string) (*domain.Task, error) {
	if ref == "" {
		return nil, domain.ErrInvalidTaskID
	}
	if task, err := s.storage.Tasks().FindByID(ctx, ref); err == nil {
		return task, nil
	}

	tasks, err := s.storage.Tasks().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	var match *domain.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous task id %q: %w", ref, domain.ErrInvalidTaskID)
			}
			match = t
		}
	}
	if match == nil {
		return nil, domain.ErrTaskNotFound
	}
	return match, nil
}

// ToggleTask flips the completed flag of a task. Completing a task fires the
// task_completed notification.
func (s *TaskService) ToggleTask(ctx context.Context, ref string) (*domain.Task, error) {
	task, err := s.ResolveTask(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	done := task.Toggle()
	if err := s.storage.Tasks().Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if done && s.sink != nil {
		s.sink.Notify(domain.NotifyTaskCompleted)
	}
	return task, nil
}

// DeleteTask removes a task.
func (s *TaskService) DeleteTask(ctx context.Context, ref string) error {
	task, err := s.ResolveTask(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to find task: %w", err)
	}
	return s.storage.Tasks().Delete(ctx, task.ID)
}

// ClearCompleted removes every completed task and returns how many were
// removed.
func (s *TaskService) ClearCompleted(ctx context.Context) (int, error) {
	n, err := s.storage.Tasks().DeleteCompleted(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear completed tasks: %w", err)
	}
	return n, nil
}
