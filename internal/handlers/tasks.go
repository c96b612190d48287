package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liuxin327/heartbeat/internal/services"
	"github.com/liuxin327/heartbeat/pkg/response"
)

// TaskHandler exposes CRUD endpoints for the shared task list.
type TaskHandler struct {
	tasks *services.TaskService
}

func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type createTaskRequest struct {
	Title       string `json:"title" validate:"required,max=128"`
	Description string `json:"description" validate:"max=1024"`
}

// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createTaskRequest
	if !bindAndValidate(c, &req) {
		return
	}

	task, err := h.tasks.Create(requestContext(c), userID, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, task)
}

// GET /api/tasks
func (h *TaskHandler) List(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 100)

	tasks, total, err := h.tasks.List(requestContext(c), services.ListTasksOptions{
		Page:     page,
		PageSize: perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, tasks, &response.Meta{
		Page:    page,
		PerPage: perPage,
		Total:   int(total),
	})
}

// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	task, err := h.tasks.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, task)
}

type updateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=128"`
	Description *string `json:"description" validate:"omitempty,max=1024"`
	IsActive    *bool   `json:"is_active"`
}

// PATCH /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req updateTaskRequest
	if !bindAndValidate(c, &req) {
		return
	}

	task, err := h.tasks.Update(requestContext(c), c.Param("id"), services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, task)
}
