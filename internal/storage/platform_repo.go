package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_platform_store.go -package=mocks chatvault/internal/storage PlatformStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PlatformStore defines the interface for platform storage operations.
type PlatformStore interface {
	// GetOrCreate returns the ID of the named platform, creating it on first use.
	// An existing platform has its updated_at bumped.
	GetOrCreate(ctx context.Context, name string) (string, error)
	// List returns all platforms ordered by name.
	List(ctx context.Context) ([]Platform, error)
}

// PlatformRepo implements PlatformStore.
type PlatformRepo struct {
	c conn
}

// NewPlatformRepo creates a new PlatformRepo bound to the connection pool.
func NewPlatformRepo(db *DB) *PlatformRepo {
	return &PlatformRepo{c: conn{q: db.DB, driver: db.driver}}
}

// GetOrCreate looks the platform up first. A miss inserts it; if a concurrent
// writer wins the insert, the lookup is retried.
func (r *PlatformRepo) GetOrCreate(ctx context.Context, name string) (string, error) {
	id, err := r.touch(ctx, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	ts := now()
	res, err := r.c.exec(ctx,
		`INSERT INTO platforms (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (name) DO NOTHING`,
		uuid.NewString(), name, ts, ts,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert platform: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return r.touch(ctx, name)
	}

	return r.lookup(ctx, name)
}

func (r *PlatformRepo) touch(ctx context.Context, name string) (string, error) {
	id, err := r.lookup(ctx, name)
	if err != nil {
		return "", err
	}
	if _, err := r.c.exec(ctx, "UPDATE platforms SET updated_at = ? WHERE id = ?", now(), id); err != nil {
		return "", fmt.Errorf("failed to update platform: %w", err)
	}
	return id, nil
}

func (r *PlatformRepo) lookup(ctx context.Context, name string) (string, error) {
	var id string
	err := r.c.queryRow(ctx, "SELECT id FROM platforms WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query platform: %w", err)
	}
	return id, nil
}

// List returns all platforms ordered by name.
func (r *PlatformRepo) List(ctx context.Context) ([]Platform, error) {
	rows, err := r.c.query(ctx,
		"SELECT id, name, api_version, created_at, updated_at FROM platforms ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query platforms: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var platforms []Platform
	for rows.Next() {
		var p Platform
		var apiVersion sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &apiVersion, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan platform: %w", err)
		}
		p.APIVersion = apiVersion.String
		platforms = append(platforms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate platforms: %w", err)
	}
	return platforms, nil
}
