package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskmaster/taskflow/internal/domain/entities"
)

// AuthService interface for authentication and session resolution
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest, meta SessionMeta) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest, meta SessionMeta) (*AuthResponse, error)
	Logout(ctx context.Context, credential string) error
	ResolveSession(ctx context.Context, credential string) (*entities.Identity, error)
}

// ProjectService interface for project management operations
type ProjectService interface {
	ListProjects(ctx context.Context, caller *entities.Identity) ([]*entities.Project, error)
	ListProjectsWithTaskCount(ctx context.Context, caller *entities.Identity) ([]*entities.ProjectWithTaskCount, error)
	GetProject(ctx context.Context, caller *entities.Identity, id uuid.UUID) (*entities.Project, error)
	CreateProject(ctx context.Context, caller *entities.Identity, req CreateProjectRequest) (*entities.Project, error)
	UpdateProject(ctx context.Context, caller *entities.Identity, id uuid.UUID, req UpdateProjectRequest) (*entities.Project, error)
	DeleteProject(ctx context.Context, caller *entities.Identity, id uuid.UUID) error
}

// TaskService interface for task management operations
type TaskService interface {
	ListTasks(ctx context.Context, caller *entities.Identity, projectID *uuid.UUID) ([]*entities.Task, error)
	GetTask(ctx context.Context, caller *entities.Identity, id uuid.UUID) (*entities.Task, error)
	CreateTask(ctx context.Context, caller *entities.Identity, req CreateTaskRequest) (*entities.Task, error)
	UpdateTask(ctx context.Context, caller *entities.Identity, id uuid.UUID, req UpdateTaskRequest) (*entities.Task, error)
	DeleteTask(ctx context.Context, caller *entities.Identity, id uuid.UUID) error
	GetTaskStats(ctx context.Context, caller *entities.Identity) (*entities.TaskStats, error)
}

// DashboardService assembles the dashboard read model
type DashboardService interface {
	GetDashboard(ctx context.Context, caller *entities.Identity) (*Dashboard, error)
}

// Request/Response Types

// Auth related types
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionMeta is recorded on the session row for auditing
type SessionMeta struct {
	IPAddress string
	UserAgent string
}

type AuthResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      *entities.Identity `json:"user"`
}

// Project related types
type CreateProjectRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Color       *string `json:"color" validate:"omitempty,project_color"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Color       *string `json:"color" validate:"omitempty,project_color"`
}

// Task related types
type CreateTaskRequest struct {
	Title       string               `json:"title" validate:"required,max=200"`
	Description *string              `json:"description" validate:"omitempty,max=2000"`
	Status      *entities.TaskStatus `json:"status" validate:"omitempty,oneof=todo in_progress completed"`
	Priority    *entities.Priority   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *string              `json:"due_date"`
	ProjectID   *string              `json:"project_id" validate:"omitempty,uuid"`
}

// UpdateTaskRequest applies only the fields present in the payload. DueDate and
// ProjectID accept an explicit null to clear them.
type UpdateTaskRequest struct {
	Title       *string              `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string              `json:"description" validate:"omitempty,max=2000"`
	Status      *entities.TaskStatus `json:"status" validate:"omitempty,oneof=todo in_progress completed"`
	Priority    *entities.Priority   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     Optional[string]     `json:"due_date"`
	ProjectID   Optional[string]     `json:"project_id"`
}

// Dashboard is the aggregate read model behind the dashboard page
type Dashboard struct {
	Stats       entities.TaskStats               `json:"stats"`
	RecentTasks []*entities.Task                 `json:"recent_tasks"`
	Projects    []*entities.ProjectWithTaskCount `json:"projects"`
}
