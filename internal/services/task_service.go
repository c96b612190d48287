package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/liuxin327/heartbeat/internal/models"
	apperrors "github.com/liuxin327/heartbeat/pkg/errors"
)

// ErrTaskNotFound indicates the requested task does not exist.
var ErrTaskNotFound = apperrors.New("TASK_NOT_FOUND", "Task not found", http.StatusNotFound)

// CreateTaskInput describes the fields accepted when creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
}

// UpdateTaskInput enumerates mutable task attributes.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	IsActive    *bool
}

// ListTasksOptions controls pagination for task listing.
type ListTasksOptions struct {
	Page     int
	PageSize int
}

// TaskService manages the shared task list.
type TaskService struct {
	db *gorm.DB
}

// NewTaskService constructs a TaskService instance.
func NewTaskService(db *gorm.DB) (*TaskService, error) {
	if db == nil {
		return nil, errors.New("task service: db is required")
	}
	return &TaskService{db: db}, nil
}

// Create adds a new task owned by the given creator.
func (s *TaskService) Create(ctx context.Context, creatorID string, input CreateTaskInput) (*models.Task, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	task := &models.Task{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
		CreatorID:   creatorID,
	}

	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("task service: create task: %w", err)
	}
	return task, nil
}

// GetByID loads a task by identifier.
func (s *TaskService) GetByID(ctx context.Context, id string) (*models.Task, error) {
	ctx = ensureContext(ctx)

	var task models.Task
	err := s.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("task service: get task: %w", err)
	}
	return &task, nil
}

// List retrieves tasks with pagination, oldest first.
func (s *TaskService) List(ctx context.Context, opts ListTasksOptions) ([]models.Task, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 100
	}

	query := s.db.WithContext(ctx).Model(&models.Task{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("task service: count tasks: %w", err)
	}

	var tasks []models.Task
	if err := query.
		Order("created_at ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("task service: list tasks: %w", err)
	}

	return tasks, total, nil
}

// Update persists mutable attributes for an existing task, including
// activating or disabling it.
func (s *TaskService) Update(ctx context.Context, id string, input UpdateTaskInput) (*models.Task, error) {
	ctx = ensureContext(ctx)

	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewBadRequest("title cannot be empty")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) == 0 {
		return task, nil
	}

	if err := s.db.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("task service: update task: %w", err)
	}
	return task, nil
}
