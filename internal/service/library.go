package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_library_service.go -package=mocks chatvault/internal/service LibraryService

import (
	"context"
	"errors"
	"strings"

	"chatvault/internal/contextutil"
	"chatvault/internal/storage"
)

const (
	// DefaultSearchLimit is used when a search does not ask for a limit.
	DefaultSearchLimit = 20
	// MaxSearchLimit caps the number of threads a search returns.
	MaxSearchLimit = 100
	// DefaultJobLimit is the number of jobs listed.
	DefaultJobLimit = 50
)

// LibraryService is the read side of the imported library.
type LibraryService interface {
	// SearchThreads lists threads matching query. limit is clamped to 1..MaxSearchLimit;
	// zero selects DefaultSearchLimit.
	SearchThreads(ctx context.Context, query string, limit int) ([]storage.ThreadSummary, error)
	// GetThread returns a thread with its messages. Returns ErrNotFound if missing.
	GetThread(ctx context.Context, id string) (*storage.ThreadDetail, error)
	// ListJobs returns recent import jobs, newest first.
	ListJobs(ctx context.Context) ([]storage.Job, error)
	// GetJob returns one import job. Returns ErrNotFound if missing.
	GetJob(ctx context.Context, id string) (*storage.Job, error)
}

// Library implements LibraryService over the stores.
type Library struct {
	threads storage.ThreadStore
	jobs    storage.JobStore
}

// NewLibrary creates a new Library.
func NewLibrary(threads storage.ThreadStore, jobs storage.JobStore) *Library {
	return &Library{threads: threads, jobs: jobs}
}

// ClampLimit applies the search limit bounds.
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultSearchLimit
	case limit < 1:
		return 1
	case limit > MaxSearchLimit:
		return MaxSearchLimit
	}
	return limit
}

// SearchThreads lists threads matching query.
func (l *Library) SearchThreads(ctx context.Context, query string, limit int) ([]storage.ThreadSummary, error) {
	query = strings.TrimSpace(query)
	results, err := l.threads.Search(ctx, query, ClampLimit(limit))
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "thread search failed", "query", query, "error", err)
		return nil, WrapError(err, "failed to search threads")
	}
	return results, nil
}

// GetThread returns a thread with its messages.
func (l *Library) GetThread(ctx context.Context, id string) (*storage.ThreadDetail, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "id", Message: "cannot be empty"}
	}
	thread, err := l.threads.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, WrapError(err, "failed to load thread")
	}
	return thread, nil
}

// ListJobs returns recent import jobs.
func (l *Library) ListJobs(ctx context.Context) ([]storage.Job, error) {
	jobs, err := l.jobs.List(ctx, DefaultJobLimit)
	if err != nil {
		return nil, WrapError(err, "failed to list jobs")
	}
	return jobs, nil
}

// GetJob returns one import job.
func (l *Library) GetJob(ctx context.Context, id string) (*storage.Job, error) {
	job, err := l.jobs.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, WrapError(err, "failed to load job")
	}
	return job, nil
}
