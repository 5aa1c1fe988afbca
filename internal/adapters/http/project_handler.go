package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/ports"
)

// ProjectHandler handles project-related requests
type ProjectHandler struct {
	projectService ports.ProjectService
	taskService    ports.TaskService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService ports.ProjectService, taskService ports.TaskService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		taskService:    taskService,
	}
}

// ListProjects godoc
// @Summary List projects
// @Description Lists the caller's projects, newest first. with_counts=true adds task counts.
// @Tags projects
// @Produce json
// @Param with_counts query bool false "Include task counts"
// @Success 200 {array} entities.Project
// @Failure 401 {object} ErrorResponse
// @Security SessionCookie
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	ctx := c.Request().Context()
	caller := CurrentIdentity(c)

	if withCounts, _ := strconv.ParseBool(c.QueryParam("with_counts")); withCounts {
		projects, err := h.projectService.ListProjectsWithTaskCount(ctx, caller)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, projects)
	}

	projects, err := h.projectService.ListProjects(ctx, caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// CreateProject godoc
// @Summary Create a new project
// @Tags projects
// @Accept json
// @Produce json
// @Param request body ports.CreateProjectRequest true "Project data"
// @Success 201 {object} SuccessResponse{data=entities.Project}
// @Failure 400 {object} ErrorResponse
// @Security SessionCookie
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var req ports.CreateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	project, err := h.projectService.CreateProject(c.Request().Context(), CurrentIdentity(c), req)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, project)
}

// GetProject godoc
// @Summary Get project by ID
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} entities.Project
// @Failure 404 {object} ErrorResponse
// @Security SessionCookie
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetProject(c echo.Context) error {
	id, err := parseID(c, entities.ErrProjectNotFound)
	if err != nil {
		return err
	}

	project, err := h.projectService.GetProject(c.Request().Context(), CurrentIdentity(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// UpdateProject godoc
// @Summary Update a project
// @Description Applies only the fields present in the body
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body ports.UpdateProjectRequest true "Fields to change"
// @Success 200 {object} SuccessResponse{data=entities.Project}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security SessionCookie
// @Router /projects/{id} [patch]
func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	id, err := parseID(c, entities.ErrProjectNotFound)
	if err != nil {
		return err
	}

	var req ports.UpdateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	project, err := h.projectService.UpdateProject(c.Request().Context(), CurrentIdentity(c), id, req)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, project)
}

// DeleteProject godoc
// @Summary Delete a project
// @Description Tasks in the project are kept and lose their project reference
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Security SessionCookie
// @Router /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	id, err := parseID(c, entities.ErrProjectNotFound)
	if err != nil {
		return err
	}

	if err := h.projectService.DeleteProject(c.Request().Context(), CurrentIdentity(c), id); err != nil {
		return err
	}
	return success(c, http.StatusOK, nil)
}

// GetProjectTasks godoc
// @Summary List the tasks of a project
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {array} entities.Task
// @Failure 404 {object} ErrorResponse
// @Security SessionCookie
// @Router /projects/{id}/tasks [get]
func (h *ProjectHandler) GetProjectTasks(c echo.Context) error {
	ctx := c.Request().Context()
	caller := CurrentIdentity(c)

	id, err := parseID(c, entities.ErrProjectNotFound)
	if err != nil {
		return err
	}

	if _, err := h.projectService.GetProject(ctx, caller, id); err != nil {
		return err
	}

	tasks, err := h.taskService.ListTasks(ctx, caller, &id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}
