package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/infrastructure/database"
	"github.com/taskmaster/taskflow/internal/ports"
)

// ProjectRepositoryImpl implements the ProjectRepository interface
type ProjectRepositoryImpl struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sqlx.DB) ports.ProjectRepository {
	return &ProjectRepositoryImpl{db: db}
}

func (r *ProjectRepositoryImpl) Create(ctx context.Context, project *entities.Project) error {
	query := `
		INSERT INTO projects (id, name, description, color, owner_id, created_at, updated_at)
		VALUES (:id, :name, :description, :color, :owner_id, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (r *ProjectRepositoryImpl) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*entities.Project, error) {
	query := `
		SELECT id, name, description, color, owner_id, created_at, updated_at
		FROM projects
		WHERE id = $1 AND owner_id = $2`

	var project entities.Project
	if err := r.db.GetContext(ctx, &project, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &project, nil
}

func (r *ProjectRepositoryImpl) Update(ctx context.Context, project *entities.Project) error {
	query := `
		UPDATE projects
		SET name = $3, description = $4, color = $5, updated_at = $6
		WHERE id = $1 AND owner_id = $2`

	result, err := r.db.ExecContext(ctx, query,
		project.ID, project.OwnerID,
		project.Name, project.Description, project.Color, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return expectOneRow(result, entities.ErrProjectNotFound)
}

// Delete detaches the project's tasks and removes the project in one
// transaction. Nothing is changed when the caller does not own the project.
func (r *ProjectRepositoryImpl) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		detach := `
			UPDATE tasks SET project_id = NULL
			WHERE project_id = $1
				AND EXISTS (SELECT 1 FROM projects WHERE id = $1 AND owner_id = $2)`
		if _, err := tx.ExecContext(ctx, detach, id, ownerID); err != nil {
			return fmt.Errorf("detach project tasks: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND owner_id = $2`, id, ownerID)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		return expectOneRow(result, entities.ErrProjectNotFound)
	})
}

func (r *ProjectRepositoryImpl) List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Project, error) {
	query := `
		SELECT id, name, description, color, owner_id, created_at, updated_at
		FROM projects
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC`

	projects := []*entities.Project{}
	if err := r.db.SelectContext(ctx, &projects, query, ownerID); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// ListWithTaskCount counts only tasks that share the project's owner.
func (r *ProjectRepositoryImpl) ListWithTaskCount(ctx context.Context, ownerID uuid.UUID) ([]*entities.ProjectWithTaskCount, error) {
	query := `
		SELECT p.id, p.name, p.description, p.color, p.owner_id, p.created_at, p.updated_at,
			(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id AND t.owner_id = p.owner_id) AS task_count
		FROM projects p
		WHERE p.owner_id = $1
		ORDER BY p.created_at DESC, p.id DESC`

	projects := []*entities.ProjectWithTaskCount{}
	if err := r.db.SelectContext(ctx, &projects, query, ownerID); err != nil {
		return nil, fmt.Errorf("list projects with task count: %w", err)
	}
	return projects, nil
}

func expectOneRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
