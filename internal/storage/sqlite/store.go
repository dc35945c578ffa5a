package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pmtrack/internal/migrations"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write collides with a unique constraint.
	ErrConflict = errors.New("conflict")
	// ErrInvalid is returned when input breaks a data rule or a reference.
	ErrInvalid = errors.New("invalid input")
)

// Store wraps access to the SQLite database and exposes high level helpers.
// Row level CRUD goes through database/sql; migrations and report
// aggregation go through gorm over the same connection.
type Store struct {
	db     *sql.DB
	orm    *gorm.DB
	logger *slog.Logger
	runner *migrations.Runner
}

type options struct {
	skipMigrations bool
	busyTimeoutMS  int
}

// Option tunes Open.
type Option func(*options)

// WithoutMigrations opens the database without applying pending migrations.
func WithoutMigrations() Option {
	return func(o *options) { o.skipMigrations = true }
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(ms int) Option {
	return func(o *options) {
		if ms > 0 {
			o.busyTimeoutMS = ms
		}
	}
}

// Open initializes a new SQLite store and runs the pending migrations.
func Open(dbPath string, logger *slog.Logger, opts ...Option) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	o := options{busyTimeoutMS: 5000}
	for _, opt := range opts {
		opt(&o)
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=ON", dbPath, o.busyTimeoutMS))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Table rebuilds toggle PRAGMA foreign_keys, which is per connection.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	orm, err := gorm.Open(&gormsqlite.Dialector{Conn: conn}, &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	s := &Store{
		db:     conn,
		orm:    orm,
		logger: logger,
		runner: migrations.NewRunner(orm, logger),
	}
	if !o.skipMigrations {
		if err := s.runner.Up(); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrations exposes the migration runner bound to this database.
func (s *Store) Migrations() *migrations.Runner {
	return s.runner
}

// Schema returns the current shape of the database.
func (s *Store) Schema() (migrations.Schema, error) {
	return migrations.Snapshot(s.orm)
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// wrap annotates err with op and, for constraint failures, with the
// matching sentinel so callers can use errors.Is.
func wrap(op string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%s: %w: %v", op, ErrConflict, err)
		case sqlite3.ErrConstraintForeignKey, sqlite3.ErrConstraintNotNull, sqlite3.ErrConstraintCheck:
			return fmt.Errorf("%s: %w: %v", op, ErrInvalid, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
}

func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.DateOnly)
}

func int64Arg(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
