package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	viewcache "github.com/taskmaster/taskflow/internal/adapters/cache"
	"github.com/taskmaster/taskflow/internal/adapters/repository"
	"github.com/taskmaster/taskflow/internal/adapters/repository/memory"
	infracache "github.com/taskmaster/taskflow/internal/infrastructure/cache"
	"github.com/taskmaster/taskflow/internal/infrastructure/config"
	"github.com/taskmaster/taskflow/internal/infrastructure/database"
	"github.com/taskmaster/taskflow/internal/infrastructure/logger"
	"github.com/taskmaster/taskflow/internal/ports"
)

// Backend holds the repositories and view cache selected by configuration
type Backend struct {
	Users    ports.UserRepository
	Sessions ports.SessionRepository
	Projects ports.ProjectRepository
	Tasks    ports.TaskRepository
	Cache    ports.ViewCache

	db    *database.DB
	redis *redis.Client
}

// OpenBackend connects the configured storage driver and, when enabled, Redis
func OpenBackend(cfg *config.Config, log *logger.Logger) (*Backend, error) {
	b := &Backend{Cache: viewcache.NoopCache{}}

	switch cfg.Database.Driver {
	case "memory":
		store := memory.NewStore()
		b.Users = store.Users()
		b.Sessions = store.Sessions()
		b.Projects = store.Projects()
		b.Tasks = store.Tasks()
		log.Warnw("Using in-memory storage, data is lost on restart")
	default:
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.db = db
		b.Users = repository.NewUserRepository(db.DB)
		b.Sessions = repository.NewSessionRepository(db.DB)
		b.Projects = repository.NewProjectRepository(db.DB)
		b.Tasks = repository.NewTaskRepository(db.DB)
		log.Infow("Connected to database", "host", cfg.Database.Host, "name", cfg.Database.Name)
	}

	if cfg.Cache.Enabled {
		client, err := infracache.NewRedisClient(cfg.Redis)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		b.redis = client
		b.Cache = viewcache.NewRedisViewCache(client, cfg.Cache.Prefix, cfg.Cache.TTL)
		log.Infow("View cache enabled", "addr", cfg.Redis.GetAddr(), "ttl", cfg.Cache.TTL)
	}

	return b, nil
}

// Ping checks every connected dependency
func (b *Backend) Ping(ctx context.Context) error {
	if b.db != nil {
		if err := b.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if b.redis != nil {
		if err := b.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close releases the database and Redis connections
func (b *Backend) Close() error {
	var errs []error
	if b.db != nil {
		errs = append(errs, b.db.Close())
	}
	if b.redis != nil {
		errs = append(errs, b.redis.Close())
	}
	return errors.Join(errs...)
}
