package migrations

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// TableName is the bookkeeping table that records applied migration IDs.
const TableName = "schema_migrations"

// State reports whether one migration has been applied.
type State struct {
	ID      string `json:"id"`
	Applied bool   `json:"applied"`
}

// Runner applies and rolls back the migration set against one database.
type Runner struct {
	db         *gorm.DB
	logger     *slog.Logger
	migrations []*gormigrate.Migration
	gm         *gormigrate.Gormigrate
}

// NewRunner prepares a runner over the given connection. The connection
// must hold foreign key enforcement on and a single underlying SQLite
// connection, since table rebuilds toggle PRAGMA foreign_keys.
func NewRunner(db *gorm.DB, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	defs := Definitions(logger)
	opts := &gormigrate.Options{
		TableName:      TableName,
		IDColumnName:   "id",
		IDColumnSize:   255,
		UseTransaction: false,
	}
	return &Runner{
		db:         db,
		logger:     logger,
		migrations: defs,
		gm:         gormigrate.New(db, opts, defs),
	}
}

// IDs lists every migration ID in application order.
func (r *Runner) IDs() []string {
	ids := make([]string, 0, len(r.migrations))
	for _, m := range r.migrations {
		ids = append(ids, m.ID)
	}
	return ids
}

// Up applies every pending migration.
func (r *Runner) Up() error {
	pending, err := r.pending()
	if err != nil {
		return err
	}
	if err := r.gm.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	r.logApplied(pending)
	return nil
}

// UpTo applies pending migrations up to and including id.
func (r *Runner) UpTo(id string) error {
	if !r.known(id) {
		return fmt.Errorf("migrate to %s: unknown migration", id)
	}
	pending, err := r.pending()
	if err != nil {
		return err
	}
	if err := r.gm.MigrateTo(id); err != nil {
		return fmt.Errorf("migrate to %s: %w", id, err)
	}
	var applied []string
	for _, p := range pending {
		applied = append(applied, p)
		if p == id {
			break
		}
	}
	r.logApplied(applied)
	return nil
}

// Down rolls back the last steps applied migrations. It stops early,
// without error, once nothing is left to roll back.
func (r *Runner) Down(steps int) (int, error) {
	done := 0
	for done < steps {
		last, err := r.lastApplied()
		if err != nil {
			return done, err
		}
		if last == "" {
			break
		}
		if err := r.gm.RollbackLast(); err != nil {
			if errors.Is(err, gormigrate.ErrNoRunMigration) {
				break
			}
			return done, fmt.Errorf("rollback %s: %w", last, err)
		}
		r.logger.Info("migration rolled back", slog.String("id", last))
		done++
	}
	return done, nil
}

// DownTo rolls back every migration applied after id; id itself stays.
func (r *Runner) DownTo(id string) (int, error) {
	idx := r.index(id)
	if idx < 0 {
		return 0, fmt.Errorf("rollback to %s: unknown migration", id)
	}
	states, err := r.Status()
	if err != nil {
		return 0, err
	}
	steps := 0
	for _, s := range states[idx+1:] {
		if s.Applied {
			steps++
		}
	}
	return r.Down(steps)
}

// Reset rolls back every applied migration.
func (r *Runner) Reset() (int, error) {
	return r.Down(len(r.migrations))
}

// Status reports every known migration with its applied flag.
func (r *Runner) Status() ([]State, error) {
	applied, err := r.appliedSet()
	if err != nil {
		return nil, err
	}
	out := make([]State, 0, len(r.migrations))
	for _, m := range r.migrations {
		_, ok := applied[m.ID]
		out = append(out, State{ID: m.ID, Applied: ok})
	}
	return out, nil
}

func (r *Runner) appliedSet() (map[string]struct{}, error) {
	exists, err := hasTable(r.db, TableName)
	if err != nil {
		return nil, err
	}
	set := map[string]struct{}{}
	if !exists {
		return set, nil
	}
	var ids []string
	if err := r.db.Table(TableName).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (r *Runner) pending() ([]string, error) {
	applied, err := r.appliedSet()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range r.migrations {
		if _, ok := applied[m.ID]; !ok {
			out = append(out, m.ID)
		}
	}
	return out, nil
}

func (r *Runner) lastApplied() (string, error) {
	applied, err := r.appliedSet()
	if err != nil {
		return "", err
	}
	for i := len(r.migrations) - 1; i >= 0; i-- {
		if _, ok := applied[r.migrations[i].ID]; ok {
			return r.migrations[i].ID, nil
		}
	}
	return "", nil
}

func (r *Runner) index(id string) int {
	for i, m := range r.migrations {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (r *Runner) known(id string) bool {
	return r.index(id) >= 0
}

func (r *Runner) logApplied(ids []string) {
	if len(ids) == 0 {
		r.logger.Debug("schema up to date")
		return
	}
	for _, id := range ids {
		r.logger.Info("migration applied", slog.String("id", id))
	}
}
