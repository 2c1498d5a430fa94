package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/retainer/pkg/history"
)

// Driver names accepted by NewSQLiteStore.
const (
	// DriverSQLite is the pure Go driver from modernc.org/sqlite.
	DriverSQLite = "sqlite"

	// DriverSQLite3 is the cgo driver from github.com/mattn/go-sqlite3.
	DriverSQLite3 = "sqlite3"
)

// SQLiteConfig contains configuration for the SQLite store.
type SQLiteConfig struct {
	// Driver is DriverSQLite or DriverSQLite3.
	// Default: DriverSQLite
	Driver string

	// Path is the database file path. ":memory:" opens a private
	// in-memory database.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging.
	// Default: true
	WALMode bool

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Driver:       DriverSQLite,
		Path:         "data/history.db",
		MaxOpenConns: 4,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements history.Store on a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at config.Path and
// applies the schema.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverSQLite
	}
	if config.Driver != DriverSQLite && config.Driver != DriverSQLite3 {
		return nil, history.NewStorageError(config.Driver, "open", fmt.Errorf("unsupported driver %q", config.Driver))
	}

	logger := slog.Default().With("component", "history.storage.sqlite")

	inMemory := config.Path == ":memory:"
	if !inMemory {
		if dir := filepath.Dir(config.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, history.NewStorageError(config.Driver, "mkdir", err)
			}
		}
	}

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, history.NewStorageError(config.Driver, "open", err)
	}

	// Every pooled connection to ":memory:" would see its own empty database.
	switch {
	case inMemory:
		db.SetMaxOpenConns(1)
	case config.MaxOpenConns > 0:
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("history storage initialized",
		"driver", config.Driver,
		"path", config.Path,
		"wal_mode", config.WALMode && !inMemory,
	)

	return s, nil
}

// initialize sets pragmas, creates the schema and checks its version.
func (s *SQLiteStore) initialize() error {
	if s.config.WALMode && s.config.Path != ":memory:" {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return s.storageError("enable_wal", err)
		}
	}

	if s.config.BusyTimeout > 0 {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
			return s.storageError("set_busy_timeout", err)
		}
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return s.storageError("create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return s.storageError("insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return s.storageError("get_schema_version", err)
	}
	if version != SchemaVersion {
		return s.storageError("schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Save inserts run, replacing any run with the same ID.
func (s *SQLiteStore) Save(ctx context.Context, run *history.Run) error {
	_, err := s.db.ExecContext(ctx, upsertRun,
		run.ID, run.Operation, run.Trigger, string(run.Status),
		run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(), run.DurationMS,
		nullString(string(run.Result)), nullString(run.Error), nullString(run.ErrorKind),
	)
	if err != nil {
		return s.storageError("save", err)
	}
	return nil
}

// Get returns the run with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*history.Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRuns+" WHERE id = ?", id)
	if err != nil {
		return nil, s.storageError("get", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, s.storageError("get", err)
		}
		return nil, history.ErrRunNotFound
	}

	run, err := scanRun(rows)
	if err != nil {
		return nil, s.storageError("scan", err)
	}
	return run, nil
}

// List returns runs matching q, newest first.
func (s *SQLiteStore) List(ctx context.Context, q history.Query) ([]*history.Run, error) {
	whereClause, args := buildWhereClause(q)

	query := selectRuns
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, q.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.storageError("list", err)
	}
	defer rows.Close()

	runs := []*history.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, s.storageError("scan", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storageError("list", err)
	}

	return runs, nil
}

// Prune deletes runs started before cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", cutoff.UnixNano())
	if err != nil {
		return 0, s.storageError("prune", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, s.storageError("prune", err)
	}
	return count, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return s.storageError("ping", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return s.storageError("close", err)
	}
	s.logger.Info("history storage closed")
	return nil
}

func (s *SQLiteStore) storageError(operation string, err error) error {
	return history.NewStorageError(s.config.Driver, operation, err)
}

// buildWhereClause returns the WHERE clause (without the keyword) for q.
func buildWhereClause(q history.Query) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if q.Operation != "" {
		conditions = append(conditions, "operation = ?")
		args = append(args, q.Operation)
	}
	if q.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(q.Status))
	}

	return strings.Join(conditions, " AND "), args
}

func scanRun(rows *sql.Rows) (*history.Run, error) {
	var (
		run                     history.Run
		status                  string
		startedAt, finishedAt   int64
		result, errMsg, errKind sql.NullString
	)

	err := rows.Scan(
		&run.ID, &run.Operation, &run.Trigger, &status,
		&startedAt, &finishedAt, &run.DurationMS,
		&result, &errMsg, &errKind,
	)
	if err != nil {
		return nil, err
	}

	run.Status = history.Status(status)
	run.StartedAt = time.Unix(0, startedAt)
	run.FinishedAt = time.Unix(0, finishedAt)
	if result.Valid {
		run.Result = []byte(result.String)
	}
	run.Error = errMsg.String
	run.ErrorKind = errKind.String

	return &run, nil
}

// nullString stores empty strings as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
