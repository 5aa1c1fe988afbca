// Package memory provides process-local repositories used by the "memory"
// database driver and by service and handler tests.
package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/ports"
)

// Store holds every table behind one lock so a project delete can detach
// tasks atomically.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*entities.User
	sessions map[uuid.UUID]*entities.Session
	projects map[uuid.UUID]*entities.Project
	tasks    map[uuid.UUID]*entities.Task
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]*entities.User),
		sessions: make(map[uuid.UUID]*entities.Session),
		projects: make(map[uuid.UUID]*entities.Project),
		tasks:    make(map[uuid.UUID]*entities.Task),
	}
}

func (s *Store) Users() ports.UserRepository       { return &userRepo{s} }
func (s *Store) Sessions() ports.SessionRepository { return &sessionRepo{s} }
func (s *Store) Projects() ports.ProjectRepository { return &projectRepo{s} }
func (s *Store) Tasks() ports.TaskRepository       { return &taskRepo{s} }

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return entities.ErrEmailTaken
		}
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(ctx context.Context, session *entities.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *session
	r.s.sessions[session.ID] = &cp
	return nil
}

func (r *sessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*entities.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, sess := range r.s.sessions {
		if sess.TokenHash == tokenHash {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, entities.ErrSessionNotFound
}

func (r *sessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.sessions, id)
	return nil
}

func (r *sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, sess := range r.s.sessions {
		if sess.IsExpired(now) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

type projectRepo struct{ s *Store }

func (r *projectRepo) Create(ctx context.Context, project *entities.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *project
	r.s.projects[project.ID] = &cp
	return nil
}

func (r *projectRepo) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*entities.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, entities.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *projectRepo) Update(ctx context.Context, project *entities.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[project.ID]
	if !ok || p.OwnerID != project.OwnerID {
		return entities.ErrProjectNotFound
	}
	cp := *project
	cp.CreatedAt = p.CreatedAt
	r.s.projects[project.ID] = &cp
	return nil
}

func (r *projectRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok || p.OwnerID != ownerID {
		return entities.ErrProjectNotFound
	}
	delete(r.s.projects, id)

	for _, t := range r.s.tasks {
		if t.BelongsTo(id) {
			t.ProjectID = nil
		}
	}
	return nil
}

func (r *projectRepo) List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.ownedProjects(ownerID), nil
}

func (r *projectRepo) ListWithTaskCount(ctx context.Context, ownerID uuid.UUID) ([]*entities.ProjectWithTaskCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	projects := r.s.ownedProjects(ownerID)
	out := make([]*entities.ProjectWithTaskCount, 0, len(projects))
	for _, p := range projects {
		var count int64
		for _, t := range r.s.tasks {
			if t.OwnerID == ownerID && t.BelongsTo(p.ID) {
				count++
			}
		}
		out = append(out, &entities.ProjectWithTaskCount{Project: *p, TaskCount: count})
	}
	return out, nil
}

// ownedProjects returns copies, newest first. Caller holds the lock.
func (s *Store) ownedProjects(ownerID uuid.UUID) []*entities.Project {
	out := []*entities.Project{}
	for _, p := range s.projects {
		if p.OwnerID == ownerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out
}

type taskRepo struct{ s *Store }

func (r *taskRepo) Create(ctx context.Context, task *entities.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *task
	r.s.tasks[task.ID] = &cp
	return nil
}

func (r *taskRepo) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*entities.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, entities.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *taskRepo) Update(ctx context.Context, task *entities.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[task.ID]
	if !ok || t.OwnerID != task.OwnerID {
		return entities.ErrTaskNotFound
	}
	cp := *task
	cp.CreatedAt = t.CreatedAt
	r.s.tasks[task.ID] = &cp
	return nil
}

func (r *taskRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return entities.ErrTaskNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func (r *taskRepo) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*entities.Task{}
	for _, t := range r.s.tasks {
		if t.OwnerID != filter.OwnerID {
			continue
		}
		if filter.ProjectID != nil && !t.BelongsTo(*filter.ProjectID) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out, nil
}

// newerFirst orders by creation time, newest first, then by id descending so
// records created at the same instant keep a fixed order.
func newerFirst(aCreated time.Time, aID uuid.UUID, bCreated time.Time, bID uuid.UUID) bool {
	if !aCreated.Equal(bCreated) {
		return aCreated.After(bCreated)
	}
	return bytes.Compare(aID[:], bID[:]) > 0
}
