package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// newTestDB opens a migrated SQLite database in a temporary directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{
			name:    "valid path",
			path:    dbPath,
			wantErr: false,
		},
		{
			name:    "invalid path",
			path:    "/invalid/path/to/db.db",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(tt.path)

			if tt.wantErr {
				if err == nil {
					t.Errorf("New() expected error, got nil")
				}
				if db != nil {
					_ = db.Close()
				}
				return
			}

			if err != nil {
				t.Errorf("New() unexpected error: %v", err)
				return
			}
			if db.Driver() != DriverSQLite {
				t.Errorf("Driver() = %s, want %s", db.Driver(), DriverSQLite)
			}

			// Verify connection pool settings
			if db.Stats().MaxOpenConnections != 25 {
				t.Errorf("New() MaxOpenConnections = %v, want 25", db.Stats().MaxOpenConnections)
			}

			_ = db.Close()
		})
	}
}

func TestOpen_Validation(t *testing.T) {
	if _, err := Open("mysql", "dsn"); err == nil {
		t.Error("Open() expected error for unsupported driver")
	}
	if _, err := Open(DriverPostgres, " "); err == nil {
		t.Error("Open() expected error for empty DSN")
	}
}

func TestParseDriver(t *testing.T) {
	tests := []struct {
		in      string
		want    Driver
		wantErr bool
	}{
		{in: "sqlite3", want: DriverSQLite},
		{in: "SQLite", want: DriverSQLite},
		{in: "pgx", want: DriverPostgres},
		{in: "postgres", want: DriverPostgres},
		{in: "oracle", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDriver(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDriver(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDriver(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	for _, table := range []string{"platforms", "import_jobs", "imported_files", "threads", "messages", "attachments"} {
		var n int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n)
		if err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if n != 1 {
			t.Errorf("table %s not created", table)
		}
	}
}

func TestMigrateFile(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	path := filepath.Join(t.TempDir(), "schema.sql")
	ddl := "-- extra\nCREATE TABLE IF NOT EXISTS extra (id TEXT PRIMARY KEY);\nCREATE INDEX IF NOT EXISTS idx_extra ON extra(id);\n"
	if err := os.WriteFile(path, []byte(ddl), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MigrateFile(context.Background(), db, path); err != nil {
		t.Fatalf("MigrateFile() error = %v", err)
	}
	if _, err := db.Exec("INSERT INTO extra (id) VALUES ('a')"); err != nil {
		t.Errorf("table from schema file not usable: %v", err)
	}

	if err := MigrateFile(context.Background(), db, filepath.Join(t.TempDir(), "missing.sql")); err == nil {
		t.Error("MigrateFile() expected error for missing file")
	}
}

func TestRebind(t *testing.T) {
	query := "SELECT * FROM t WHERE a = ? AND b LIKE ? ESCAPE '\\' AND c = '?' AND d = ?"

	if got := DriverSQLite.Rebind(query); got != query {
		t.Errorf("sqlite Rebind() changed query: %s", got)
	}

	want := "SELECT * FROM t WHERE a = $1 AND b LIKE $2 ESCAPE '\\' AND c = '?' AND d = $3"
	if got := DriverPostgres.Rebind(query); got != want {
		t.Errorf("postgres Rebind() = %s, want %s", got, want)
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("-- comment\nCREATE TABLE a (x INT);\n\n  ;CREATE TABLE b (y INT)\n")
	if len(got) != 2 {
		t.Fatalf("splitStatements() returned %d statements, want 2: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (x INT)" || got[1] != "CREATE TABLE b (y INT)" {
		t.Errorf("splitStatements() = %q", got)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
		{name: "sqlite corrupt", err: fmt.Errorf("insert: %w", sqlite3.Error{Code: sqlite3.ErrCorrupt}), want: true},
		{name: "sqlite not a db", err: sqlite3.Error{Code: sqlite3.ErrNotADB}, want: true},
		{name: "sqlite busy", err: sqlite3.Error{Code: sqlite3.ErrBusy}, want: false},
		{name: "postgres internal", err: fmt.Errorf("q: %w", &pgconn.PgError{Code: "XX001"}), want: true},
		{name: "postgres unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInTx_RollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sentinel := errors.New("stop")

	err := db.InTx(ctx, func(r Repos) error {
		if _, err := r.Platforms.GetOrCreate(ctx, "ChatGPT"); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("InTx() error = %v, want %v", err, sentinel)
	}

	platforms, err := db.Repos().Platforms.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(platforms) != 0 {
		t.Errorf("rolled back transaction left %d platforms", len(platforms))
	}

	if err := db.InTx(ctx, func(r Repos) error {
		_, err := r.Platforms.GetOrCreate(ctx, "ChatGPT")
		return err
	}); err != nil {
		t.Fatalf("InTx() error = %v", err)
	}
	platforms, err = db.Repos().Platforms.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(platforms) != 1 {
		t.Errorf("committed transaction left %d platforms, want 1", len(platforms))
	}
}
