package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/ports"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func verify(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

var projectCols = []string{"id", "name", "description", "color", "owner_id", "created_at", "updated_at"}

func TestProjectGetByIDFiltersByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)
	id, owner := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND owner_id = $2")).
		WithArgs(id, owner).
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow(id.String(), "Launch", nil, "#6366f1", owner.String(), now, now))

	project, err := repo.GetByID(context.Background(), id, owner)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if project.ID != id || project.OwnerID != owner || project.Description != nil {
		t.Errorf("unexpected project: %+v", project)
	}
	verify(t, mock)
}

func TestProjectGetByIDNotOwned(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM projects")).
		WillReturnRows(sqlmock.NewRows(projectCols))

	_, err := repo.GetByID(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, entities.ErrProjectNotFound) || !errors.Is(err, entities.ErrNotFound) {
		t.Fatalf("err = %v, want project not found", err)
	}
	verify(t, mock)
}

func TestProjectUpdateNoRowsIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)
	project := &entities.Project{ID: uuid.New(), OwnerID: uuid.New(), Name: "x", Color: "#000000"}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Update(context.Background(), project); !errors.Is(err, entities.ErrProjectNotFound) {
		t.Fatalf("err = %v, want project not found", err)
	}
	verify(t, mock)
}

func TestProjectDeleteDetachesTasks(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)
	id, owner := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET project_id = NULL")).
		WithArgs(id, owner).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects WHERE id = $1 AND owner_id = $2")).
		WithArgs(id, owner).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Delete(context.Background(), id, owner); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	verify(t, mock)
}

func TestProjectDeleteNotOwnedRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET project_id = NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, entities.ErrProjectNotFound) {
		t.Fatalf("err = %v, want project not found", err)
	}
	verify(t, mock)
}

func TestProjectListWithTaskCountCountsOwnedTasks(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)
	owner := uuid.New()
	now := time.Now()

	cols := append(append([]string{}, projectCols...), "task_count")
	mock.ExpectQuery(regexp.QuoteMeta("t.project_id = p.id AND t.owner_id = p.owner_id")).
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(uuid.NewString(), "A", "desc", "#112233", owner.String(), now, now, int64(2)).
			AddRow(uuid.NewString(), "B", nil, "#445566", owner.String(), now, now, int64(0)))

	projects, err := repo.ListWithTaskCount(context.Background(), owner)
	if err != nil {
		t.Fatalf("ListWithTaskCount: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("len = %d, want 2", len(projects))
	}
	if projects[0].TaskCount != 2 || projects[1].TaskCount != 0 {
		t.Errorf("counts = %d, %d", projects[0].TaskCount, projects[1].TaskCount)
	}
	if projects[0].Description == nil || *projects[0].Description != "desc" {
		t.Errorf("description = %v", projects[0].Description)
	}
	verify(t, mock)
}

func TestTaskListFilters(t *testing.T) {
	owner, project := uuid.New(), uuid.New()

	tests := []struct {
		name   string
		filter ports.TaskFilter
		match  string
		args   []driver.Value
	}{
		{"owner only", ports.TaskFilter{OwnerID: owner}, "WHERE owner_id = $1 ORDER BY created_at DESC, id DESC", []driver.Value{owner}},
		{"by project", ports.TaskFilter{OwnerID: owner, ProjectID: &project}, "WHERE owner_id = $1 AND project_id = $2 ORDER BY created_at DESC, id DESC", []driver.Value{owner, project}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewTaskRepository(db)

			mock.ExpectQuery(regexp.QuoteMeta(tt.match)).
				WithArgs(tt.args...).
				WillReturnRows(sqlmock.NewRows([]string{"id"}))

			tasks, err := repo.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if tasks == nil || len(tasks) != 0 {
				t.Errorf("tasks = %v, want empty non-nil slice", tasks)
			}
			verify(t, mock)
		})
	}
}

func TestTaskDeleteNotOwned(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1 AND owner_id = $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Fatalf("err = %v, want task not found", err)
	}
	verify(t, mock)
}

func TestTaskUpdateWritesCompletion(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)
	now := time.Now()
	task := &entities.Task{
		ID: uuid.New(), OwnerID: uuid.New(), Title: "Ship",
		Status: entities.TaskStatusCompleted, Priority: entities.PriorityHigh,
		CompletedAt: &now, UpdatedAt: now,
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks")).
		WithArgs(task.ID, task.OwnerID, "Ship", nil, task.Status, task.Priority, nil, now, nil, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Update(context.Background(), task); err != nil {
		t.Fatalf("Update: %v", err)
	}
	verify(t, mock)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.Create(context.Background(), &entities.User{ID: uuid.New(), Email: "a@example.com"})
	if !errors.Is(err, entities.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
	verify(t, mock)
}

func TestSessionLookupAndPrune(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE expires_at <= $1")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	if _, err := repo.GetByTokenHash(context.Background(), "missing"); !errors.Is(err, entities.ErrSessionNotFound) {
		t.Fatalf("err = %v, want session not found", err)
	}

	n, err := repo.DeleteExpired(context.Background(), now)
	if err != nil || n != 4 {
		t.Fatalf("DeleteExpired = %d, %v", n, err)
	}
	verify(t, mock)
}
