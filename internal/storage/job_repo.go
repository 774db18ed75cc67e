package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_job_store.go -package=mocks chatvault/internal/storage JobStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStore defines the interface for import job storage operations.
type JobStore interface {
	// Create inserts a new job in the pending state.
	Create(ctx context.Context, spec JobSpec) (*Job, error)
	// UpdateProgress applies a partial update. started_at is stamped the first
	// time the job enters running and finished_at the first time it enters a
	// terminal status. Returns ErrNotFound if the job does not exist.
	UpdateProgress(ctx context.Context, id string, update JobUpdate) error
	// Get returns a job by ID. Returns ErrNotFound if not found.
	Get(ctx context.Context, id string) (*Job, error)
	// List returns the most recently created jobs first.
	List(ctx context.Context, limit int) ([]Job, error)
}

// JobRepo implements JobStore.
type JobRepo struct {
	c conn
}

// NewJobRepo creates a new JobRepo bound to the connection pool.
func NewJobRepo(db *DB) *JobRepo {
	return &JobRepo{c: conn{q: db.DB, driver: db.driver}}
}

const jobColumns = `id, job_type, status, scope, files_total, files_processed, progress_percent,
	error_messages, created_at, updated_at, started_at, finished_at`

// Create inserts a new job in the pending state.
func (r *JobRepo) Create(ctx context.Context, spec JobSpec) (*Job, error) {
	scope, err := json.Marshal(spec.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job scope: %w", err)
	}

	ts := now()
	job := &Job{
		ID:            uuid.NewString(),
		JobType:       spec.JobType,
		Status:        JobPending,
		Scope:         spec.Scope,
		FilesTotal:    spec.FilesTotal,
		ErrorMessages: []string{},
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if job.JobType == "" {
		job.JobType = "auto"
	}

	_, err = r.c.exec(ctx,
		`INSERT INTO import_jobs (id, job_type, status, scope, files_total, files_processed, progress_percent,
		 error_messages, created_at, updated_at) VALUES (?, ?, ?, ?, ?, 0, 0, '[]', ?, ?)`,
		job.ID, job.JobType, string(job.Status), string(scope), job.FilesTotal, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert job: %w", err)
	}
	return job, nil
}

// UpdateProgress applies a partial update to the job.
func (r *JobRepo) UpdateProgress(ctx context.Context, id string, update JobUpdate) error {
	job, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	ts := now()
	if update.Status != nil {
		job.Status = *update.Status
		if job.Status == JobRunning && job.StartedAt == nil {
			job.StartedAt = &ts
		}
		if job.Status.Terminal() && job.FinishedAt == nil {
			job.FinishedAt = &ts
		}
	}
	if update.FilesTotal != nil {
		job.FilesTotal = *update.FilesTotal
	}
	if update.FilesProcessed != nil {
		job.FilesProcessed = *update.FilesProcessed
	}
	if update.ProgressPercent != nil {
		job.ProgressPercent = *update.ProgressPercent
	}
	job.ErrorMessages = append(job.ErrorMessages, update.AppendErrors...)

	errs, err := json.Marshal(job.ErrorMessages)
	if err != nil {
		return fmt.Errorf("failed to encode job errors: %w", err)
	}

	_, err = r.c.exec(ctx,
		`UPDATE import_jobs SET status = ?, files_total = ?, files_processed = ?, progress_percent = ?,
		 error_messages = ?, updated_at = ?, started_at = ?, finished_at = ? WHERE id = ?`,
		string(job.Status), job.FilesTotal, job.FilesProcessed, job.ProgressPercent,
		string(errs), ts, nullTime(job.StartedAt), nullTime(job.FinishedAt), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// Get returns a job by ID.
func (r *JobRepo) Get(ctx context.Context, id string) (*Job, error) {
	job, err := scanJob(r.c.queryRow(ctx, "SELECT "+jobColumns+" FROM import_jobs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query job: %w", err)
	}
	return job, nil
}

// List returns up to limit jobs, newest first.
func (r *JobRepo) List(ctx context.Context, limit int) ([]Job, error) {
	rows, err := r.c.query(ctx,
		"SELECT "+jobColumns+" FROM import_jobs ORDER BY created_at DESC, id LIMIT ?", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	jobs := []Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return jobs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job                 Job
		status, scope, errs string
		started, finished   sql.NullTime
	)
	if err := row.Scan(&job.ID, &job.JobType, &status, &scope, &job.FilesTotal, &job.FilesProcessed,
		&job.ProgressPercent, &errs, &job.CreatedAt, &job.UpdatedAt, &started, &finished); err != nil {
		return nil, err
	}
	job.Status = JobStatus(status)
	if err := json.Unmarshal([]byte(scope), &job.Scope); err != nil {
		return nil, fmt.Errorf("failed to decode job scope: %w", err)
	}
	if err := json.Unmarshal([]byte(errs), &job.ErrorMessages); err != nil {
		return nil, fmt.Errorf("failed to decode job errors: %w", err)
	}
	if job.ErrorMessages == nil {
		job.ErrorMessages = []string{}
	}
	if started.Valid {
		t := started.Time
		job.StartedAt = &t
	}
	if finished.Valid {
		t := finished.Time
		job.FinishedAt = &t
	}
	return &job, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
