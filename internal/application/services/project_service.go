package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/infrastructure/logger"
	"github.com/taskmaster/taskflow/internal/infrastructure/metrics"
	"github.com/taskmaster/taskflow/internal/ports"
)

// ProjectService handles project-related operations for the calling user
type ProjectService struct {
	projectRepo ports.ProjectRepository
	cache       ports.ViewCache
	validator   *Validator
	metrics     *metrics.Metrics
	logger      *logger.Logger
	now         func() time.Time
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo ports.ProjectRepository,
	cache ports.ViewCache,
	validator *Validator,
	m *metrics.Metrics,
	log *logger.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		cache:       cache,
		validator:   validator,
		metrics:     m,
		logger:      log.WithComponent("projects"),
		now:         time.Now,
	}
}

// ListProjects returns the caller's projects, newest first
func (s *ProjectService) ListProjects(ctx context.Context, caller *entities.Identity) ([]*entities.Project, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	var projects []*entities.Project
	hit, version := readView(ctx, s.cache, s.metrics, s.logger, caller.ID, ports.ViewProjects, &projects)
	if hit {
		return projects, nil
	}

	projects, err := s.projectRepo.List(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	writeView(ctx, s.cache, s.logger, caller.ID, ports.ViewProjects, version, projects)
	return projects, nil
}

// ListProjectsWithTaskCount returns the caller's projects with the number of
// the caller's tasks in each
func (s *ProjectService) ListProjectsWithTaskCount(ctx context.Context, caller *entities.Identity) ([]*entities.ProjectWithTaskCount, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	var projects []*entities.ProjectWithTaskCount
	hit, version := readView(ctx, s.cache, s.metrics, s.logger, caller.ID, ports.ViewProjectCounts, &projects)
	if hit {
		return projects, nil
	}

	projects, err := s.projectRepo.ListWithTaskCount(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects with task count: %w", err)
	}

	writeView(ctx, s.cache, s.logger, caller.ID, ports.ViewProjectCounts, version, projects)
	return projects, nil
}

// GetProject retrieves one of the caller's projects
func (s *ProjectService) GetProject(ctx context.Context, caller *entities.Identity, id uuid.UUID) (*entities.Project, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, id, caller.ID)
	if err != nil {
		return nil, wrapRepoErr("failed to get project", err)
	}
	return project, nil
}

// CreateProject creates a project owned by the caller
func (s *ProjectService) CreateProject(ctx context.Context, caller *entities.Identity, req ports.CreateProjectRequest) (*entities.Project, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	color := entities.DefaultProjectColor
	if req.Color != nil {
		color = *req.Color
	}

	now := s.now()
	project := &entities.Project{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: normalizeDescription(req.Description),
		Color:       color,
		OwnerID:     caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.afterMutation(ctx, caller, "create", project.ID)
	return project, nil
}

// UpdateProject applies the provided fields to one of the caller's projects
func (s *ProjectService) UpdateProject(ctx context.Context, caller *entities.Identity, id uuid.UUID, req ports.UpdateProjectRequest) (*entities.Project, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, id, caller.ID)
	if err != nil {
		return nil, wrapRepoErr("failed to get project", err)
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = normalizeDescription(req.Description)
	}
	if req.Color != nil {
		project.Color = *req.Color
	}
	project.UpdatedAt = s.now()

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, wrapRepoErr("failed to update project", err)
	}

	s.afterMutation(ctx, caller, "update", project.ID)
	return project, nil
}

// DeleteProject removes one of the caller's projects. Its tasks are kept and
// lose their project reference.
func (s *ProjectService) DeleteProject(ctx context.Context, caller *entities.Identity, id uuid.UUID) error {
	if err := requireCaller(caller); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(ctx, id, caller.ID); err != nil {
		return wrapRepoErr("failed to delete project", err)
	}

	s.afterMutation(ctx, caller, "delete", id)
	return nil
}

func (s *ProjectService) afterMutation(ctx context.Context, caller *entities.Identity, op string, projectID uuid.UUID) {
	invalidateViews(ctx, s.cache, s.logger, caller.ID, ports.ViewProjects, ports.ViewProjectCounts)
	s.metrics.Mutation("project", op)
	s.logger.LogUserAction(caller.ID.String(), op+"_project", map[string]interface{}{
		"project_id": projectID.String(),
	})
}
