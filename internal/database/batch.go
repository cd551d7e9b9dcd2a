package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DefaultBatchSize is the operation ceiling used when none is configured.
const DefaultBatchSize = 450

// TxBeginner starts transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// BatchWriter queues statements and commits them in chunks. Each chunk is
// sent as one pgx.Batch inside its own transaction, so a chunk is atomic and
// chunks commit in queue order. A chunk is flushed before it would exceed
// the ceiling. A failure leaves earlier chunks committed.
type BatchWriter struct {
	db       TxBeginner
	batch    *pgx.Batch
	limit    int
	commits  int
	affected int64
}

// NewBatchWriter creates a writer with the given per-chunk ceiling.
func NewBatchWriter(db TxBeginner, limit int) *BatchWriter {
	if limit <= 0 {
		limit = DefaultBatchSize
	}
	return &BatchWriter{
		db:    db,
		batch: &pgx.Batch{},
		limit: limit,
	}
}

// BatchWriter returns a chunked writer over the pool.
func (db *Database) BatchWriter(limit int) *BatchWriter {
	return NewBatchWriter(db.Pool, limit)
}

// Queue adds a statement, committing the pending chunk first if it is full.
func (w *BatchWriter) Queue(ctx context.Context, sql string, args ...any) error {
	if w.batch.Len()+1 > w.limit {
		if err := w.Flush(ctx); err != nil {
			return err
		}
	}
	w.batch.Queue(sql, args...)
	return nil
}

// Flush commits the pending chunk. It is a no-op when nothing is queued.
func (w *BatchWriter) Flush(ctx context.Context) error {
	if w.batch.Len() == 0 {
		return nil
	}

	pending := w.batch
	w.batch = &pgx.Batch{}

	tx, err := w.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin chunk %d: %w", w.commits+1, err)
	}

	results := tx.SendBatch(ctx, pending)
	var affected int64
	for i := 0; i < pending.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to execute statement %d of chunk %d: %w", i+1, w.commits+1, err)
		}
		affected += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to close chunk %d: %w", w.commits+1, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunk %d: %w", w.commits+1, err)
	}

	w.commits++
	w.affected += affected
	return nil
}

// Pending returns the number of queued, uncommitted statements.
func (w *BatchWriter) Pending() int {
	return w.batch.Len()
}

// Commits returns the number of chunks committed so far.
func (w *BatchWriter) Commits() int {
	return w.commits
}

// RowsAffected returns the rows touched by all committed chunks.
func (w *BatchWriter) RowsAffected() int64 {
	return w.affected
}
