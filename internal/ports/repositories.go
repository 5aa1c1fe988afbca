package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskmaster/taskflow/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}

// SessionRepository stores login sessions keyed by the hash of their token
type SessionRepository interface {
	Create(ctx context.Context, session *entities.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*entities.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ProjectRepository defines the interface for project data operations.
// Every read and write is filtered by owner; a project owned by someone else
// is reported as entities.ErrProjectNotFound.
type ProjectRepository interface {
	Create(ctx context.Context, project *entities.Project) error
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*entities.Project, error)
	Update(ctx context.Context, project *entities.Project) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Project, error)
	ListWithTaskCount(ctx context.Context, ownerID uuid.UUID) ([]*entities.ProjectWithTaskCount, error)
}

// TaskRepository defines the interface for task data operations.
// Same ownership rule as ProjectRepository.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
}

// View names a cached per-user read model
type View string

const (
	ViewProjects      View = "projects"
	ViewProjectCounts View = "project_counts"
)

// ViewCache caches per-user read models between mutations.
//
// Every view carries a version that Invalidate advances. Get reports the
// version current before the lookup; Set stores a value under the version
// it was computed at, so a value read before an invalidation never becomes
// visible after it.
type ViewCache interface {
	Get(ctx context.Context, ownerID uuid.UUID, view View, dest interface{}) (hit bool, version int64, err error)
	Set(ctx context.Context, ownerID uuid.UUID, view View, version int64, value interface{}) error
	Invalidate(ctx context.Context, ownerID uuid.UUID, views ...View) error
}

// TaskFilter narrows task listings. OwnerID is mandatory.
type TaskFilter struct {
	OwnerID   uuid.UUID
	ProjectID *uuid.UUID
}
