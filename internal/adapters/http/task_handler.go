package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService ports.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// ListTasks godoc
// @Summary List tasks
// @Description Lists the caller's tasks, newest first
// @Tags tasks
// @Produce json
// @Param project_id query string false "Only tasks of this project"
// @Success 200 {array} entities.Task
// @Failure 400 {object} ErrorResponse
// @Security SessionCookie
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	var projectID *uuid.UUID
	if raw := c.QueryParam("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return entities.NewValidationError("project_id", "Invalid project id")
		}
		projectID = &id
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), CurrentIdentity(c), projectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// CreateTask godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.CreateTaskRequest true "Task data"
// @Success 201 {object} SuccessResponse{data=entities.Task}
// @Failure 400 {object} ErrorResponse
// @Security SessionCookie
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), CurrentIdentity(c), req)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, task)
}

// GetTaskStats godoc
// @Summary Task statistics
// @Tags tasks
// @Produce json
// @Success 200 {object} entities.TaskStats
// @Security SessionCookie
// @Router /tasks/stats [get]
func (h *TaskHandler) GetTaskStats(c echo.Context) error {
	stats, err := h.taskService.GetTaskStats(c.Request().Context(), CurrentIdentity(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// GetTask godoc
// @Summary Get task by ID
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ErrorResponse
// @Security SessionCookie
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	id, err := parseID(c, entities.ErrTaskNotFound)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), CurrentIdentity(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateTask godoc
// @Summary Update a task
// @Description Applies only the fields present in the body. due_date and project_id accept null.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} SuccessResponse{data=entities.Task}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security SessionCookie
// @Router /tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id, err := parseID(c, entities.ErrTaskNotFound)
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), CurrentIdentity(c), id, req)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Security SessionCookie
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id, err := parseID(c, entities.ErrTaskNotFound)
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), CurrentIdentity(c), id); err != nil {
		return err
	}
	return success(c, http.StatusOK, nil)
}
