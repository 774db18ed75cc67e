package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_imported_file_store.go -package=mocks chatvault/internal/storage ImportedFileStore

import (
	"context"
	"fmt"
)

// ImportedFileStore defines the interface for the payload dedup ledger.
type ImportedFileStore interface {
	// Record claims the content hash for a payload. It returns false without
	// error when the hash was already recorded.
	Record(ctx context.Context, file ImportedFile) (bool, error)
	// Exists reports whether the content hash has been recorded.
	Exists(ctx context.Context, contentHash string) (bool, error)
}

// ImportedFileRepo implements ImportedFileStore.
type ImportedFileRepo struct {
	c conn
}

// NewImportedFileRepo creates a new ImportedFileRepo bound to the connection pool.
func NewImportedFileRepo(db *DB) *ImportedFileRepo {
	return &ImportedFileRepo{c: conn{q: db.DB, driver: db.driver}}
}

// Record inserts the ledger row, doing nothing if the hash is already present.
func (r *ImportedFileRepo) Record(ctx context.Context, file ImportedFile) (bool, error) {
	importedAt := file.ImportedAt
	if importedAt.IsZero() {
		importedAt = now()
	}
	res, err := r.c.exec(ctx,
		`INSERT INTO imported_files (content_hash, job_id, source_path, detected_format, imported_at)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT (content_hash) DO NOTHING`,
		file.ContentHash, file.JobID, file.SourcePath, file.DetectedFormat, importedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to record imported file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// Exists reports whether the content hash has been recorded.
func (r *ImportedFileRepo) Exists(ctx context.Context, contentHash string) (bool, error) {
	var n int
	err := r.c.queryRow(ctx, "SELECT COUNT(*) FROM imported_files WHERE content_hash = ?", contentHash).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query imported file: %w", err)
	}
	return n > 0, nil
}
