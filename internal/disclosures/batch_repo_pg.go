package disclosures

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGBatchRepo implements BatchRepo using Postgres.
type PGBatchRepo struct {
	DB *sql.DB
}

// Begin locks or creates the batch row for one date and marks it RUNNING.
// The SELECT FOR UPDATE serializes concurrent batch starts for the same day.
func (r *PGBatchRepo) Begin(ctx context.Context, batchDate time.Time, force bool) (BatchExecution, error) {
	batch, err := r.beginOnce(ctx, batchDate, force)
	if isUniqueViolation(err) {
		// A concurrent first run for this date inserted the row between
		// our SELECT and INSERT. The row exists now, so the locking path
		// applies on retry.
		batch, err = r.beginOnce(ctx, batchDate, force)
	}
	return batch, err
}

func (r *PGBatchRepo) beginOnce(ctx context.Context, batchDate time.Time, force bool) (BatchExecution, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return BatchExecution{}, err
	}
	defer tx.Rollback()

	const selectQuery = `
SELECT id, batch_date, status, processed_count, error_text, started_at, completed_at
FROM batch_executions
WHERE batch_date = $1
FOR UPDATE`
	var batch BatchExecution
	var errorText sql.NullString
	var startedAt, completedAt sql.NullTime
	err = tx.QueryRowContext(ctx, selectQuery, batchDate).Scan(
		&batch.ID, &batch.BatchDate, &batch.Status, &batch.ProcessedCount,
		&errorText, &startedAt, &completedAt,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		const insertQuery = `
INSERT INTO batch_executions (batch_date, status, processed_count, started_at, created_at, updated_at)
VALUES ($1, $2, 0, now(), now(), now())
RETURNING id, batch_date, status, processed_count, started_at`
		if err := tx.QueryRowContext(ctx, insertQuery, batchDate, BatchStatusRunning).Scan(
			&batch.ID, &batch.BatchDate, &batch.Status, &batch.ProcessedCount, &startedAt,
		); err != nil {
			return BatchExecution{}, err
		}
		if startedAt.Valid {
			batch.StartedAt = &startedAt.Time
		}
		if err := tx.Commit(); err != nil {
			return BatchExecution{}, err
		}
		return batch, nil
	case err != nil:
		return BatchExecution{}, err
	}

	if errorText.Valid {
		batch.ErrorText = &errorText.String
	}
	if startedAt.Valid {
		batch.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		batch.CompletedAt = &completedAt.Time
	}

	if batch.Status == BatchStatusSuccess && !force {
		if err := tx.Commit(); err != nil {
			return BatchExecution{}, err
		}
		return batch, ErrBatchAlreadySucceeded
	}

	const updateQuery = `
UPDATE batch_executions
SET status = $2, processed_count = 0, error_text = NULL, started_at = now(), completed_at = NULL, updated_at = now()
WHERE batch_date = $1`
	if _, err := tx.ExecContext(ctx, updateQuery, batchDate, BatchStatusRunning); err != nil {
		return BatchExecution{}, err
	}
	if err := tx.Commit(); err != nil {
		return BatchExecution{}, err
	}
	batch.Status = BatchStatusRunning
	batch.ProcessedCount = 0
	batch.ErrorText = nil
	batch.CompletedAt = nil
	return batch, nil
}

// MarkSuccess finishes a batch day with its processed count.
func (r *PGBatchRepo) MarkSuccess(ctx context.Context, batchDate time.Time, processedCount int) error {
	const query = `
UPDATE batch_executions
SET status = $2, processed_count = $3, completed_at = now(), updated_at = now()
WHERE batch_date = $1`
	res, err := r.DB.ExecContext(ctx, query, batchDate, BatchStatusSuccess, processedCount)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// MarkFailed finishes a batch day with a truncated error summary.
func (r *PGBatchRepo) MarkFailed(ctx context.Context, batchDate time.Time, errorText string) error {
	const maxErrorLen = 2000
	if len(errorText) > maxErrorLen {
		errorText = errorText[:maxErrorLen]
	}
	const query = `
UPDATE batch_executions
SET status = $2, error_text = $3, completed_at = now(), updated_at = now()
WHERE batch_date = $1`
	res, err := r.DB.ExecContext(ctx, query, batchDate, BatchStatusFailed, errorText)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Get returns one batch execution by date.
func (r *PGBatchRepo) Get(ctx context.Context, batchDate time.Time) (BatchExecution, error) {
	const query = `
SELECT id, batch_date, status, processed_count, error_text, started_at, completed_at
FROM batch_executions
WHERE batch_date = $1
LIMIT 1`
	var batch BatchExecution
	var errorText sql.NullString
	var startedAt, completedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, batchDate).Scan(
		&batch.ID, &batch.BatchDate, &batch.Status, &batch.ProcessedCount,
		&errorText, &startedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BatchExecution{}, ErrNotFound
		}
		return BatchExecution{}, err
	}
	if errorText.Valid {
		batch.ErrorText = &errorText.String
	}
	if startedAt.Valid {
		batch.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		batch.CompletedAt = &completedAt.Time
	}
	return batch, nil
}

// isUniqueViolation matches the 23505 unique_violation raised when two
// first runs race on the batch_date unique key.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
