package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/ports"
)

const taskColumns = `id, title, description, status, priority, due_date, completed_at, project_id, owner_id, created_at, updated_at`

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (:id, :title, :description, :status, :priority, :due_date, :completed_at,
			:project_id, :owner_id, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND owner_id = $2`

	var task entities.Task
	if err := r.db.GetContext(ctx, &task, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = $3, description = $4, status = $5, priority = $6, due_date = $7,
			completed_at = $8, project_id = $9, updated_at = $10
		WHERE id = $1 AND owner_id = $2`

	result, err := r.db.ExecContext(ctx, query,
		task.ID, task.OwnerID,
		task.Title, task.Description, task.Status, task.Priority, task.DueDate,
		task.CompletedAt, task.ProjectID, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectOneRow(result, entities.ErrTaskNotFound)
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectOneRow(result, entities.ErrTaskNotFound)
}

// List returns the owner's tasks, newest first, optionally limited to one project.
func (r *TaskRepositoryImpl) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{filter.OwnerID}

	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", len(args)))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY created_at DESC, id DESC`

	tasks := []*entities.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}
