package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_tx_runner.go -package=mocks chatvault/internal/storage TxRunner

// Driver names a database/sql driver supported by the store.
type Driver string

const (
	// DriverSQLite is mattn/go-sqlite3.
	DriverSQLite Driver = "sqlite3"
	// DriverPostgres is the pgx stdlib driver.
	DriverPostgres Driver = "pgx"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

//go:embed schema/*.sql
var schemaFS embed.FS

// now is the clock used for bookkeeping timestamps.
var now = func() time.Time { return time.Now().UTC() }

// ParseDriver validates a configured driver name.
func ParseDriver(name string) (Driver, error) {
	switch Driver(strings.ToLower(strings.TrimSpace(name))) {
	case DriverSQLite, "sqlite":
		return DriverSQLite, nil
	case DriverPostgres, "postgres", "postgresql":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q (supported: sqlite3, pgx)", name)
}

// Rebind rewrites ? placeholders into the driver's native form. Question
// marks inside single-quoted literals are left alone.
func (d Driver) Rebind(query string) string {
	if d != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DB is a database handle that knows its SQL dialect.
type DB struct {
	*sql.DB
	driver Driver
}

// SQLiteDSN returns the DSN for a SQLite database file with foreign keys,
// a busy timeout and WAL journaling enabled on every connection.
func SQLiteDSN(path string) string {
	return path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
}

// New opens a SQLite database at the given path.
func New(path string) (*DB, error) {
	return Open(DriverSQLite, SQLiteDSN(path))
}

// Open opens a database connection for driver and verifies it.
func Open(driver Driver, dsn string) (*DB, error) {
	if _, err := ParseDriver(string(driver)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty DSN for driver %s", driver)
	}

	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{DB: db, driver: driver}, nil
}

// Driver returns the dialect of the connection.
func (db *DB) Driver() Driver {
	return db.driver
}

// Migrate applies the embedded schema for the connection's dialect.
// It is idempotent and can be run multiple times safely.
func Migrate(ctx context.Context, db *DB) error {
	name := "schema/sqlite.sql"
	if db.driver == DriverPostgres {
		name = "schema/postgres.sql"
	}
	ddl, err := schemaFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read embedded schema: %w", err)
	}
	return applySchema(ctx, db, string(ddl))
}

// MigrateFile applies an externally supplied DDL file.
func MigrateFile(ctx context.Context, db *DB, path string) error {
	ddl, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	return applySchema(ctx, db, string(ddl))
}

func applySchema(ctx context.Context, db *DB, ddl string) error {
	for _, stmt := range splitStatements(ddl) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// splitStatements splits a DDL script on semicolons after dropping -- comments.
func splitStatements(ddl string) []string {
	var lines []string
	for _, line := range strings.Split(ddl, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}
	var stmts []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// IsFatal reports whether err indicates a corrupt or unusable store, after
// which no further writes should be attempted.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrCorrupt || liteErr.Code == sqlite3.ErrNotADB
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "XX")
	}
	return false
}
