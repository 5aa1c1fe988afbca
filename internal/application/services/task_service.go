package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/infrastructure/logger"
	"github.com/taskmaster/taskflow/internal/infrastructure/metrics"
	"github.com/taskmaster/taskflow/internal/ports"
)

// TaskService handles task-related operations for the calling user
type TaskService struct {
	taskRepo    ports.TaskRepository
	projectRepo ports.ProjectRepository
	cache       ports.ViewCache
	validator   *Validator
	metrics     *metrics.Metrics
	logger      *logger.Logger
	now         func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(
	taskRepo ports.TaskRepository,
	projectRepo ports.ProjectRepository,
	cache ports.ViewCache,
	validator *Validator,
	m *metrics.Metrics,
	log *logger.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		cache:       cache,
		validator:   validator,
		metrics:     m,
		logger:      log.WithComponent("tasks"),
		now:         time.Now,
	}
}

// ListTasks returns the caller's tasks, newest first, optionally limited to a project
func (s *TaskService) ListTasks(ctx context.Context, caller *entities.Identity, projectID *uuid.UUID) ([]*entities.Task, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.List(ctx, ports.TaskFilter{OwnerID: caller.ID, ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves one of the caller's tasks
func (s *TaskService) GetTask(ctx context.Context, caller *entities.Identity, id uuid.UUID) (*entities.Task, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetByID(ctx, id, caller.ID)
	if err != nil {
		return nil, wrapRepoErr("failed to get task", err)
	}
	return task, nil
}

// CreateTask creates a task owned by the caller
func (s *TaskService) CreateTask(ctx context.Context, caller *entities.Identity, req ports.CreateTaskRequest) (*entities.Task, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var dueDate *time.Time
	if req.DueDate != nil {
		parsed, err := parseDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		dueDate = parsed
	}

	projectID, err := s.ownedProjectID(ctx, caller, req.ProjectID)
	if err != nil {
		return nil, err
	}

	status := entities.TaskStatusTodo
	if req.Status != nil {
		status = *req.Status
	}
	priority := entities.PriorityMedium
	if req.Priority != nil {
		priority = *req.Priority
	}

	now := s.now()
	task := &entities.Task{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: normalizeDescription(req.Description),
		Status:      status,
		Priority:    priority,
		DueDate:     dueDate,
		ProjectID:   projectID,
		OwnerID:     caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.IsCompleted() {
		task.ApplyCompletion(entities.CompletionSetNow, now)
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.afterMutation(ctx, caller, "create", task.ID)
	return task, nil
}

// UpdateTask applies the provided fields to one of the caller's tasks and
// keeps completed_at in step with the status.
func (s *TaskService) UpdateTask(ctx context.Context, caller *entities.Identity, id uuid.UUID, req ports.UpdateTaskRequest) (*entities.Task, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetByID(ctx, id, caller.ID)
	if err != nil {
		return nil, wrapRepoErr("failed to get task", err)
	}

	if req.DueDate.Set {
		var dueDate *time.Time
		if req.DueDate.Value != nil {
			if dueDate, err = parseDueDate(*req.DueDate.Value); err != nil {
				return nil, err
			}
		}
		task.DueDate = dueDate
	}

	if req.ProjectID.Set {
		projectID, err := s.ownedProjectID(ctx, caller, req.ProjectID.Value)
		if err != nil {
			return nil, err
		}
		task.ProjectID = projectID
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = normalizeDescription(req.Description)
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}

	now := s.now()
	action := entities.CompletionTransition(task.Status, req.Status)
	if req.Status != nil {
		task.Status = *req.Status
	}
	task.ApplyCompletion(action, now)
	task.UpdatedAt = now

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, wrapRepoErr("failed to update task", err)
	}

	if action != entities.CompletionNoChange {
		s.metrics.CompletionTransition(action.String())
	}
	s.afterMutation(ctx, caller, "update", task.ID)
	return task, nil
}

// DeleteTask removes one of the caller's tasks
func (s *TaskService) DeleteTask(ctx context.Context, caller *entities.Identity, id uuid.UUID) error {
	if err := requireCaller(caller); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, id, caller.ID); err != nil {
		return wrapRepoErr("failed to delete task", err)
	}

	s.afterMutation(ctx, caller, "delete", id)
	return nil
}

// GetTaskStats counts the caller's tasks as of now. Stats are always computed
// from the store.
func (s *TaskService) GetTaskStats(ctx context.Context, caller *entities.Identity) (*entities.TaskStats, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.List(ctx, ports.TaskFilter{OwnerID: caller.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks for stats: %w", err)
	}

	stats := entities.ComputeTaskStats(tasks, s.now())
	return &stats, nil
}

// ownedProjectID parses a project reference and checks the caller owns it.
func (s *TaskService) ownedProjectID(ctx context.Context, caller *entities.Identity, raw *string) (*uuid.UUID, error) {
	projectID, err := parseProjectID(raw)
	if err != nil || projectID == nil {
		return nil, err
	}

	if _, err := s.projectRepo.GetByID(ctx, *projectID, caller.ID); err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return nil, entities.NewValidationError("project_id", "Project not found")
		}
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	return projectID, nil
}

// Task changes move project task counts, so the counts view is dropped.
func (s *TaskService) afterMutation(ctx context.Context, caller *entities.Identity, op string, taskID uuid.UUID) {
	invalidateViews(ctx, s.cache, s.logger, caller.ID, ports.ViewProjectCounts)
	s.metrics.Mutation("task", op)
	s.logger.LogUserAction(caller.ID.String(), op+"_task", map[string]interface{}{
		"task_id": taskID.String(),
	})
}
