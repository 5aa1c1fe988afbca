package services

import (
	"context"

	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/ports"
)

const dashboardListLimit = 5

// DashboardService assembles the dashboard from the task and project accessors
type DashboardService struct {
	tasks    ports.TaskService
	projects ports.ProjectService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(tasks ports.TaskService, projects ports.ProjectService) *DashboardService {
	return &DashboardService{tasks: tasks, projects: projects}
}

// GetDashboard returns the caller's stats, most recent tasks and first projects
func (s *DashboardService) GetDashboard(ctx context.Context, caller *entities.Identity) (*ports.Dashboard, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	stats, err := s.tasks.GetTaskStats(ctx, caller)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.ListTasks(ctx, caller, nil)
	if err != nil {
		return nil, err
	}

	projects, err := s.projects.ListProjectsWithTaskCount(ctx, caller)
	if err != nil {
		return nil, err
	}

	return &ports.Dashboard{
		Stats:       *stats,
		RecentTasks: head(tasks, dashboardListLimit),
		Projects:    head(projects, dashboardListLimit),
	}, nil
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
