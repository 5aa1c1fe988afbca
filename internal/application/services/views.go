package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/infrastructure/logger"
	"github.com/taskmaster/taskflow/internal/infrastructure/metrics"
	"github.com/taskmaster/taskflow/internal/ports"
)

// Cache failures never fail a request: reads fall back to the store and
// writes are logged.

// readView returns the view version to hand back to writeView on a miss.
// A negative version means the cache is unusable and nothing is written.
func readView(ctx context.Context, cache ports.ViewCache, m *metrics.Metrics, log *logger.Logger, ownerID uuid.UUID, view ports.View, dest interface{}) (bool, int64) {
	hit, version, err := cache.Get(ctx, ownerID, view, dest)
	if err != nil {
		log.Warnw("View cache read failed", "view", view, "user_id", ownerID, "error", err)
		return false, -1
	}
	m.CacheLookup(string(view), hit)
	return hit, version
}

func writeView(ctx context.Context, cache ports.ViewCache, log *logger.Logger, ownerID uuid.UUID, view ports.View, version int64, value interface{}) {
	if version < 0 {
		return
	}
	if err := cache.Set(ctx, ownerID, view, version, value); err != nil {
		log.Warnw("View cache write failed", "view", view, "user_id", ownerID, "error", err)
	}
}

func invalidateViews(ctx context.Context, cache ports.ViewCache, log *logger.Logger, ownerID uuid.UUID, views ...ports.View) {
	if err := cache.Invalidate(ctx, ownerID, views...); err != nil {
		log.Warnw("View cache invalidation failed", "views", views, "user_id", ownerID, "error", err)
	}
}

// wrapRepoErr keeps not-found errors bare so callers and the HTTP layer can
// match them, and wraps everything else.
func wrapRepoErr(msg string, err error) error {
	if errors.Is(err, entities.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
