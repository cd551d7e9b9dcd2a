package repository

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/cleanteam/internal/database"
	"github.com/stwalsh4118/cleanteam/internal/reconcile"
)

// SyncRepository persists the writes of a reconciliation pass.
type SyncRepository interface {
	// Apply writes created properties, created tasks and refreshed tasks in
	// chunks of at most batchSize statements. It returns the number of
	// committed chunks; on error, chunks committed before the failure stay.
	Apply(ctx context.Context, out reconcile.Output, batchSize int) (int, error)
}

// syncRepository is the concrete implementation of SyncRepository.
type syncRepository struct {
	db *database.Database
}

// NewSyncRepository creates a new instance of SyncRepository.
func NewSyncRepository(db *database.Database) SyncRepository {
	return &syncRepository{
		db: db,
	}
}

// Apply queues properties before the tasks that reference them.
func (r *syncRepository) Apply(ctx context.Context, out reconcile.Output, batchSize int) (int, error) {
	w := r.db.BatchWriter(batchSize)

	for _, p := range out.CreatedProperties {
		if err := w.Queue(ctx, insertPropertySQL, insertPropertyArgs(p)...); err != nil {
			return w.Commits(), fmt.Errorf("failed to write property %s: %w", p.ID, err)
		}
	}
	for _, t := range out.CreatedTasks {
		if err := w.Queue(ctx, insertTaskSQL, insertTaskArgs(t)...); err != nil {
			return w.Commits(), fmt.Errorf("failed to write task %s: %w", t.ID, err)
		}
	}
	for _, t := range out.UpdatedTasks {
		if err := w.Queue(ctx, refreshTaskSQL, refreshTaskArgs(t)...); err != nil {
			return w.Commits(), fmt.Errorf("failed to refresh task %s: %w", t.ID, err)
		}
	}

	if err := w.Flush(ctx); err != nil {
		return w.Commits(), err
	}
	return w.Commits(), nil
}
