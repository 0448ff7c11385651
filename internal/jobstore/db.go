package jobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/content-sync-server/internal/status"
)

const jobColumns = `item_id, status, enqueued_at, retry_count, sync_started_at,
	last_error, last_error_kind, retry_not_before, message, updated_at`

const upsertJobSQL = `
INSERT INTO sync_jobs (` + jobColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (item_id) DO UPDATE SET
	status = EXCLUDED.status,
	enqueued_at = EXCLUDED.enqueued_at,
	retry_count = EXCLUDED.retry_count,
	sync_started_at = EXCLUDED.sync_started_at,
	last_error = EXCLUDED.last_error,
	last_error_kind = EXCLUDED.last_error_kind,
	retry_not_before = EXCLUDED.retry_not_before,
	message = EXCLUDED.message,
	updated_at = EXCLUDED.updated_at`

type dbStore struct {
	pool *pgxpool.Pool
}

// NewDBStore creates a new database-backed job store
func NewDBStore(pool *pgxpool.Pool) Store {
	return &dbStore{
		pool: pool,
	}
}

func (d *dbStore) Initialize(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach job database: %w", err)
	}
	return nil
}

func (d *dbStore) Get(ctx context.Context, itemID string) (*status.SyncJob, error) {
	job, err := scanJob(d.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM sync_jobs WHERE item_id = $1`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &status.SyncJob{ItemID: itemID}, nil
		}
		return nil, err
	}
	return job, nil
}

func (d *dbStore) List(ctx context.Context) (map[string]*status.SyncJob, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+jobColumns+` FROM sync_jobs`)
	if err != nil {
		return nil, err
	}
	jobs, err := collectJobs(rows)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*status.SyncJob, len(jobs))
	for _, job := range jobs {
		result[job.ItemID] = job
	}
	return result, nil
}

func (d *dbStore) ListByStatus(ctx context.Context, statuses ...status.JobStatus) ([]*status.SyncJob, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	rows, err := d.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM sync_jobs
		WHERE status = ANY($1)
		ORDER BY enqueued_at ASC NULLS LAST, item_id ASC`, names)
	if err != nil {
		return nil, err
	}
	return collectJobs(rows)
}

func (d *dbStore) Update(ctx context.Context, job *status.SyncJob) error {
	job = job.Copy()
	job.UpdatedAt = time.Now().UTC()
	_, err := d.pool.Exec(ctx, upsertJobSQL, jobArgs(job)...)
	return err
}

func (d *dbStore) UpdateAtomically(
	ctx context.Context,
	itemID string,
	testAndUpdateFn func(job *status.SyncJob) bool,
) (bool, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Serialize concurrent writers of the same item, including the first insert.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, itemID); err != nil {
		return false, err
	}

	job, err := scanJob(tx.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM sync_jobs WHERE item_id = $1 FOR UPDATE`, itemID))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return false, err
		}
		job = &status.SyncJob{ItemID: itemID}
	}

	shouldUpdate := testAndUpdateFn(job)
	if shouldUpdate {
		job.ItemID = itemID
		job.UpdatedAt = time.Now().UTC()
		if _, err := tx.Exec(ctx, upsertJobSQL, jobArgs(job)...); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return shouldUpdate, nil
}

func (d *dbStore) Delete(ctx context.Context, itemID string) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM sync_jobs WHERE item_id = $1`, itemID)
	return err
}

func collectJobs(rows pgx.Rows) ([]*status.SyncJob, error) {
	defer rows.Close()

	var jobs []*status.SyncJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func scanJob(row pgx.Row) (*status.SyncJob, error) {
	var (
		job           status.SyncJob
		jobStatus     string
		lastError     *string
		lastErrorKind *string
		message       *string
	)
	err := row.Scan(
		&job.ItemID,
		&jobStatus,
		&job.EnqueuedAt,
		&job.RetryCount,
		&job.SyncStartedAt,
		&lastError,
		&lastErrorKind,
		&job.RetryNotBefore,
		&message,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = status.JobStatus(jobStatus)
	job.LastError = derefString(lastError)
	job.LastErrorKind = derefString(lastErrorKind)
	job.Message = derefString(message)
	return &job, nil
}

func jobArgs(job *status.SyncJob) []any {
	return []any{
		job.ItemID,
		string(job.Status),
		job.EnqueuedAt,
		job.RetryCount,
		job.SyncStartedAt,
		nullableString(job.LastError),
		nullableString(job.LastErrorKind),
		job.RetryNotBefore,
		nullableString(job.Message),
		job.UpdatedAt,
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
