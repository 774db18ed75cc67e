package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_import_service.go -package=mocks chatvault/internal/service ImportService
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_import_runner.go -package=mocks chatvault/internal/service ImportRunner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chatvault/internal/contextutil"
	"chatvault/internal/dialect"
	"chatvault/internal/ingest"
	"chatvault/internal/storage"
)

// ImportRequest asks for an import of server-side paths.
type ImportRequest struct {
	Paths        []string
	PlatformHint string
	AllowPartial bool
}

// ImportService starts imports.
type ImportService interface {
	// StartImport prepares the job and runs it in the background. Returns
	// ErrConflict when another import is running.
	StartImport(ctx context.Context, req ImportRequest) (*storage.Job, error)
}

// ImportRunner is the part of ingest.Importer used to start jobs.
type ImportRunner interface {
	Prepare(ctx context.Context, sources []string, opts ingest.Options) (*ingest.Batch, error)
	Run(ctx context.Context, batch *ingest.Batch) (*ingest.Result, error)
}

// Imports implements ImportService.
type Imports struct {
	baseCtx  context.Context
	runner   ImportRunner
	root     string
	defaults ingest.Options
}

// NewImports creates a new Imports. Background jobs run under baseCtx, so
// cancelling it stops them at the next payload. When root is set, requested
// paths are resolved inside it.
func NewImports(baseCtx context.Context, runner ImportRunner, root string, defaults ingest.Options) *Imports {
	return &Imports{baseCtx: baseCtx, runner: runner, root: root, defaults: defaults}
}

// StartImport validates the request, prepares the batch and runs it in a goroutine.
func (s *Imports) StartImport(ctx context.Context, req ImportRequest) (*storage.Job, error) {
	logger := contextutil.LoggerFromContext(ctx)

	paths, err := s.resolvePaths(req.Paths)
	if err != nil {
		logger.WarnContext(ctx, "rejected import request", "error", err)
		return nil, err
	}

	if h := strings.TrimSpace(req.PlatformHint); h != "" && !strings.EqualFold(h, "auto") {
		if _, err := dialect.ParseDialect(h); err != nil {
			return nil, &ValidationError{Field: "platform_hint", Message: err.Error()}
		}
	}

	opts := s.defaults
	opts.PlatformHint = req.PlatformHint
	opts.AllowPartial = req.AllowPartial

	batch, err := s.runner.Prepare(ctx, paths, opts)
	if errors.Is(err, ingest.ErrBusy) {
		return nil, WrapError(ErrConflict, err.Error())
	}
	if err != nil {
		return nil, WrapError(err, "failed to prepare import")
	}

	runCtx := contextutil.WithLogger(s.baseCtx, logger)
	go func() {
		res, err := s.runner.Run(runCtx, batch)
		if err != nil {
			logger.ErrorContext(runCtx, "import job failed", "job_id", batch.Job.ID, "error", err)
			return
		}
		logger.InfoContext(runCtx, "import job finished", "job_id", res.JobID, "status", res.Status)
	}()

	return batch.Job, nil
}

func (s *Imports) resolvePaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, &ValidationError{Field: "paths", Message: "at least one path is required"}
	}
	if s.root != "" {
		if err := s.confine(out); err != nil {
			return nil, err
		}
	}
	for _, p := range out {
		if _, err := os.Stat(p); err != nil {
			return nil, &ValidationError{Field: "paths", Message: "cannot read " + p}
		}
	}
	return out, nil
}

// confine resolves paths against the import root in place and rejects
// escapes, including symlinks that lead outside the root.
func (s *Imports) confine(paths []string) error {
	root := filepath.Clean(s.root)
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return fmt.Errorf("failed to resolve import root: %w", err)
	}
	for i, p := range paths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, abs)
		}
		abs = filepath.Clean(abs)
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return &ValidationError{Field: "paths", Message: "cannot read " + p}
		}
		if !within(realRoot, resolved) {
			return &ValidationError{Field: "paths", Message: "path " + p + " is outside the import root"}
		}
		paths[i] = abs
	}
	return nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
