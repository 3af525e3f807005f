package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"ticktock/internal/logger"
	"ticktock/internal/model"
	"ticktock/internal/repository"
)

const (
	defaultEveryDays = 1
	defaultRemindAt  = "09:00"
)

// TaskStore is the persistence the task service needs.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	ListByUser(ctx context.Context, userID uint) ([]model.Task, error)
	FindByID(ctx context.Context, userID uint, taskID string) (*model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, userID uint, taskID string) error
}

// TaskDraft represents data required to create a task. Zero values mean
// "not supplied" and are replaced with defaults.
type TaskDraft struct {
	ID            string
	Title         string
	Notes         string
	EveryDays     int
	NextDue       string
	RemindAt      string
	Priority      bool
	LastCompleted *string
}

// TaskPatch is a partial update. Only fields with Set are considered.
type TaskPatch struct {
	Title         Optional[string]
	Notes         Optional[string]
	EveryDays     Optional[int]
	NextDue       Optional[string]
	RemindAt      Optional[string]
	Priority      Optional[bool]
	LastCompleted Optional[*string]
}

// TaskService wraps task-related business logic.
type TaskService struct {
	tasks TaskStore
}

func NewTaskService(tasks TaskStore) *TaskService {
	return &TaskService{tasks: tasks}
}

// List returns every task owned by the caller.
func (s *TaskService) List(ctx context.Context, ident Identity) (tasks []model.Task, err error) {
	defer observeTaskOp("list", time.Now(), &err)
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}

	tasks, err = s.tasks.ListByUser(ctx, ident.UserID)
	if err != nil {
		return nil, newError(ErrPersistence, "Failed to load tasks", err)
	}
	return tasks, nil
}

// Create stores a new task for the caller and returns its id.
func (s *TaskService) Create(ctx context.Context, ident Identity, draft TaskDraft) (id string, err error) {
	defer observeTaskOp("create", time.Now(), &err)
	if err := requireIdentity(ident); err != nil {
		return "", err
	}

	task := model.Task{
		ID:            strings.TrimSpace(draft.ID),
		UserID:        ident.UserID,
		Title:         strings.TrimSpace(draft.Title),
		Notes:         draft.Notes,
		EveryDays:     draft.EveryDays,
		NextDue:       draft.NextDue,
		RemindAt:      draft.RemindAt,
		Priority:      draft.Priority,
		LastCompleted: draft.LastCompleted,
	}
	if task.Title == "" {
		return "", newError(ErrValidation, "title required", nil)
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.EveryDays < 1 {
		task.EveryDays = defaultEveryDays
	}
	if task.RemindAt == "" {
		task.RemindAt = defaultRemindAt
	}
	if task.LastCompleted != nil && *task.LastCompleted == "" {
		task.LastCompleted = nil
	}

	if err := s.tasks.Create(ctx, &task); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", newError(ErrConflict, "Task id already exists", err)
		}
		return "", newError(ErrPersistence, "Failed to save task", err)
	}

	logger.Debug(ctx, "task created", "task_id", task.ID)
	return task.ID, nil
}

// Update applies patch to one of the caller's tasks. Concurrent updates are
// last-write-wins.
func (s *TaskService) Update(ctx context.Context, ident Identity, taskID string, patch TaskPatch) (err error) {
	defer observeTaskOp("update", time.Now(), &err)
	if err := requireIdentity(ident); err != nil {
		return err
	}

	task, err := s.tasks.FindByID(ctx, ident.UserID, taskID)
	if err != nil {
		return taskLookupError(err)
	}

	patch.apply(task)

	if err := s.tasks.Update(ctx, task); err != nil {
		return taskLookupError(err)
	}
	return nil
}

// Delete removes one of the caller's tasks.
func (s *TaskService) Delete(ctx context.Context, ident Identity, taskID string) (err error) {
	defer observeTaskOp("delete", time.Now(), &err)
	if err := requireIdentity(ident); err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, ident.UserID, taskID); err != nil {
		return taskLookupError(err)
	}
	return nil
}

// apply copies the present fields onto task. Empty title, nextDue and
// remindAt, and an everyDays below one, keep the stored value.
func (p TaskPatch) apply(task *model.Task) {
	if v, ok := p.Title.Get(); ok {
		if v = strings.TrimSpace(v); v != "" {
			task.Title = v
		}
	}
	if v, ok := p.Notes.Get(); ok {
		task.Notes = v
	}
	if v, ok := p.EveryDays.Get(); ok && v >= 1 {
		task.EveryDays = v
	}
	if v, ok := p.NextDue.Get(); ok && v != "" {
		task.NextDue = v
	}
	if v, ok := p.RemindAt.Get(); ok && v != "" {
		task.RemindAt = v
	}
	if v, ok := p.Priority.Get(); ok {
		task.Priority = v
	}
	if v, ok := p.LastCompleted.Get(); ok {
		task.LastCompleted = v
	}
}

func taskLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "Task not found", err)
	}
	return newError(ErrPersistence, "Failed to save task", err)
}

func observeTaskOp(op string, start time.Time, err *error) {
	taskOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	taskOps.WithLabelValues(op, statusLabel(*err)).Inc()
}
