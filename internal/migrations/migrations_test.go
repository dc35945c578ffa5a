package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=ON", path))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(&sqlite.Dialector{Conn: conn}, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustSnapshot(t *testing.T, db *gorm.DB) Schema {
	t.Helper()
	s, err := Snapshot(db)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return s
}

func mustExec(t *testing.T, db *gorm.DB, stmt string, args ...any) {
	t.Helper()
	if err := db.Exec(stmt, args...).Error; err != nil {
		t.Fatalf("exec %q: %v", stmt, err)
	}
}

func TestDefinitions_OrderedAndUnique(t *testing.T) {
	defs := Definitions(quietLogger())
	seen := map[string]bool{}
	for i, m := range defs {
		if seen[m.ID] {
			t.Fatalf("duplicate migration id %s", m.ID)
		}
		seen[m.ID] = true
		if m.Migrate == nil || m.Rollback == nil {
			t.Errorf("migration %s must have both directions", m.ID)
		}
		if i > 0 && defs[i-1].ID >= m.ID {
			t.Errorf("migration %s sorts before its predecessor %s", m.ID, defs[i-1].ID)
		}
	}
}

func TestRunner_UpCreatesFinalSchema(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db, quietLogger())
	if err := r.Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}

	s := mustSnapshot(t, db)
	want := []string{"chat_sessions", "projects", "sprints", "task_attachments", "task_comments",
		"task_hours_history", "task_status", "tasks", "teams", "users"}
	if got := s.Tables(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("tables = %v, want %v", got, want)
	}

	if _, ok := s["sprints"].Column("name_sprint"); ok {
		t.Error("sprints.name_sprint should be dropped")
	}
	if _, ok := s["sprints"].Column("created_at"); ok {
		t.Error("sprints.created_at should be dropped")
	}
	col, ok := s["task_status"].Column("project_id")
	if !ok || !col.NotNull {
		t.Errorf("task_status.project_id = %+v, want NOT NULL column", col)
	}
	ix, ok := s["task_status"].Index("code", "project_id")
	if !ok || !ix.Unique {
		t.Errorf("composite unique index missing: %+v", s["task_status"].Indexes)
	}
	if _, ok := s["task_status"].Index("code"); ok {
		t.Error("single column unique index on code should be gone")
	}
	if fk, ok := s["teams"].ForeignKey("project_id"); !ok || fk.OnDelete != "SET NULL" || fk.OnUpdate != "NO ACTION" {
		t.Errorf("teams.project_id fk = %+v", fk)
	}
	if fk, ok := s["users"].ForeignKey("supervisor_id"); !ok || fk.Table != "users" || fk.OnDelete != "SET NULL" {
		t.Errorf("users.supervisor_id fk = %+v", fk)
	}
	for _, table := range []string{"task_attachments", "task_comments", "task_hours_history"} {
		if fk, ok := s[table].ForeignKey("task_id"); !ok || fk.OnDelete != "CASCADE" {
			t.Errorf("%s.task_id fk = %+v, want CASCADE", table, fk)
		}
	}

	states, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, st := range states {
		if !st.Applied {
			t.Errorf("migration %s not applied", st.ID)
		}
	}
}

func TestRunner_UpIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db, quietLogger())
	if err := r.Up(); err != nil {
		t.Fatalf("first Up: %v", err)
	}
	before := mustSnapshot(t, db)
	if err := NewRunner(db, quietLogger()).Up(); err != nil {
		t.Fatalf("second Up: %v", err)
	}
	if diff := before.Diff(mustSnapshot(t, db)); len(diff) > 0 {
		t.Fatalf("second Up changed schema:\n%s", strings.Join(diff, "\n"))
	}
}

func TestEachMigration_DownRestoresPriorSchema(t *testing.T) {
	ids := NewRunner(openTestDB(t), quietLogger()).IDs()
	for i, id := range ids {
		t.Run(id, func(t *testing.T) {
			db := openTestDB(t)
			r := NewRunner(db, quietLogger())
			if i > 0 {
				if err := r.UpTo(ids[i-1]); err != nil {
					t.Fatalf("UpTo(%s): %v", ids[i-1], err)
				}
			}
			before := mustSnapshot(t, db)

			if err := r.UpTo(id); err != nil {
				t.Fatalf("UpTo(%s): %v", id, err)
			}
			n, err := r.Down(1)
			if err != nil {
				t.Fatalf("Down: %v", err)
			}
			if n != 1 {
				t.Fatalf("Down rolled back %d migrations, want 1", n)
			}

			if diff := before.Diff(mustSnapshot(t, db)); len(diff) > 0 {
				t.Fatalf("schema not restored:\n%s", strings.Join(diff, "\n"))
			}
		})
	}
}

func TestRunner_ResetDropsEverything(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db, quietLogger())
	if err := r.Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}
	n, err := r.Reset()
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if n != len(r.IDs()) {
		t.Errorf("Reset rolled back %d, want %d", n, len(r.IDs()))
	}
	if tables := mustSnapshot(t, db).Tables(); len(tables) != 0 {
		t.Errorf("tables left after reset: %v", tables)
	}
	n, err = r.Down(3)
	if err != nil || n != 0 {
		t.Errorf("Down on empty history = (%d, %v), want (0, nil)", n, err)
	}
}

func TestRunner_DownToKeepsTarget(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db, quietLogger())
	if err := r.Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}
	target := "20240212100100_add_supervisor_to_users"
	if _, err := r.DownTo(target); err != nil {
		t.Fatalf("DownTo: %v", err)
	}
	states, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	past := false
	for _, st := range states {
		if st.Applied == past {
			t.Errorf("%s applied=%t", st.ID, st.Applied)
		}
		if st.ID == target {
			past = true
		}
	}
	if _, err := r.DownTo("nope"); err == nil {
		t.Error("DownTo unknown id should fail")
	}
}

func TestStatusOrderBackfill_StartsAtOnePerProject(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db, quietLogger())
	if err := r.UpTo("20240304110000_add_project_to_task_status"); err != nil {
		t.Fatalf("UpTo: %v", err)
	}
	mustExec(t, db, `INSERT INTO projects(id, name) VALUES (1, 'a'), (2, 'b')`)
	mustExec(t, db, `INSERT INTO task_status(id, code, name, "order", project_id) VALUES
        (10, 'a1', 'A1', 90, 1), (11, 'b1', 'B1', 0, 2), (12, 'a2', 'A2', 7, 1), (13, 'b2', 'B2', 0, 2), (14, 'a3', 'A3', 0, 1)`)

	if err := r.UpTo("20240304110100_backfill_task_status_order"); err != nil {
		t.Fatalf("backfill: %v", err)
	}

	type row struct {
		ID    int64
		Order int
	}
	var rows []row
	if err := db.Raw(`SELECT id, "order" AS "order" FROM task_status ORDER BY id`).Scan(&rows).Error; err != nil {
		t.Fatalf("select: %v", err)
	}
	want := map[int64]int{10: 1, 11: 1, 12: 2, 13: 2, 14: 3}
	for _, r := range rows {
		if want[r.ID] != r.Order {
			t.Errorf("status %d order = %d, want %d", r.ID, r.Order, want[r.ID])
		}
	}
}

func TestStatusCode_UniquePerProject(t *testing.T) {
	db := openTestDB(t)
	if err := NewRunner(db, quietLogger()).Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}
	mustExec(t, db, `INSERT INTO projects(id, name) VALUES (1, 'a'), (2, 'b')`)
	mustExec(t, db, `INSERT INTO task_status(code, name, project_id) VALUES ('todo', 'To Do', 1)`)

	if err := db.Exec(`INSERT INTO task_status(code, name, project_id) VALUES ('todo', 'Again', 1)`).Error; err == nil {
		t.Error("duplicate code within a project must be rejected")
	}
	if err := db.Exec(`INSERT INTO task_status(code, name, project_id) VALUES ('todo', 'Other', 2)`).Error; err != nil {
		t.Errorf("same code in another project: %v", err)
	}
	if err := db.Exec(`INSERT INTO task_status(code, name) VALUES ('loose', 'No project')`).Error; err == nil {
		t.Error("status without project must be rejected")
	}
}

func TestRequireStatusProject_FailsOnOrphans(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db, quietLogger())
	if err := r.UpTo("20240304110100_backfill_task_status_order"); err != nil {
		t.Fatalf("UpTo: %v", err)
	}
	mustExec(t, db, `INSERT INTO task_status(code, name) VALUES ('todo', 'To Do')`)

	err := r.Up()
	if !errors.Is(err, ErrStatusesWithoutProject) {
		t.Fatalf("Up error = %v, want ErrStatusesWithoutProject", err)
	}
	states, _ := r.Status()
	for _, st := range states {
		if st.ID >= "20240304110200" && st.Applied {
			t.Errorf("%s applied after failure", st.ID)
		}
	}
}

func TestRestoreGlobalStatusCodes_RefusesDuplicates(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db, quietLogger())
	if err := r.UpTo("20240304110200_task_status_code_unique_per_project"); err != nil {
		t.Fatalf("UpTo: %v", err)
	}
	mustExec(t, db, `INSERT INTO projects(id, name) VALUES (1, 'a'), (2, 'b')`)
	mustExec(t, db, `INSERT INTO task_status(code, name, project_id) VALUES ('todo', 'x', 1), ('todo', 'y', 2)`)

	if _, err := r.Down(1); !errors.Is(err, ErrDuplicateStatusCodes) {
		t.Fatalf("Down error = %v, want ErrDuplicateStatusCodes", err)
	}
}

func TestRebuild_KeepsRowsAndChildren(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db, quietLogger())
	if err := r.UpTo("20240212100000_add_project_to_teams"); err != nil {
		t.Fatalf("UpTo: %v", err)
	}
	mustExec(t, db, `INSERT INTO projects(id, name) VALUES (1, 'a')`)
	mustExec(t, db, `INSERT INTO teams(id, name, project_id) VALUES (5, 'core', 1)`)
	mustExec(t, db, `INSERT INTO schedules(project_id, team_id) VALUES (1, 5)`)

	if _, err := r.Down(1); err != nil {
		t.Fatalf("Down: %v", err)
	}

	var name string
	if err := db.Raw(`SELECT name FROM teams WHERE id = 5`).Scan(&name).Error; err != nil || name != "core" {
		t.Fatalf("team row after rebuild = %q, %v", name, err)
	}
	var schedules int64
	db.Raw(`SELECT COUNT(*) FROM schedules`).Scan(&schedules)
	if schedules != 1 {
		t.Errorf("schedules = %d, want 1 (rebuild must not cascade)", schedules)
	}
	var fkOn int
	db.Raw(`PRAGMA foreign_keys`).Scan(&fkOn)
	if fkOn != 1 {
		t.Error("foreign keys must be enabled again after rebuild")
	}
}

func TestDropSchedulesTeamFK_MissingConstraintIsNotFatal(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db, quietLogger())
	if err := r.UpTo("20240520080000_add_work_schedule_to_users"); err != nil {
		t.Fatalf("UpTo: %v", err)
	}
	if err := rebuildTable(db, schedulesV2); err != nil {
		t.Fatalf("manual rebuild: %v", err)
	}

	if err := r.Up(); err != nil {
		t.Fatalf("Up with constraint already removed: %v", err)
	}
	if _, ok := mustSnapshot(t, db)["schedules"]; ok {
		t.Error("schedules should be dropped")
	}
}

func TestCascades(t *testing.T) {
	db := openTestDB(t)
	if err := NewRunner(db, quietLogger()).Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}
	mustExec(t, db, `INSERT INTO projects(id, name) VALUES (1, 'a')`)
	mustExec(t, db, `INSERT INTO users(id, name, email) VALUES (1, 'boss', 'b@x'), (2, 'dev', 'd@x')`)
	mustExec(t, db, `UPDATE users SET supervisor_id = 1 WHERE id = 2`)
	mustExec(t, db, `INSERT INTO teams(id, name, project_id) VALUES (1, 'core', 1)`)
	mustExec(t, db, `INSERT INTO tasks(id, project_id, title, assignee_id) VALUES (1, 1, 't', 2)`)
	mustExec(t, db, `INSERT INTO task_comments(task_id, author_id, body) VALUES (1, 2, 'hi')`)
	mustExec(t, db, `INSERT INTO task_attachments(task_id, file_name, url) VALUES (1, 'f', 'u')`)
	mustExec(t, db, `INSERT INTO task_hours_history(task_id, user_id, hours, entry_date) VALUES (1, 2, 3, '2024-06-03')`)

	mustExec(t, db, `DELETE FROM tasks WHERE id = 1`)
	for _, table := range []string{"task_comments", "task_attachments", "task_hours_history"} {
		var n int64
		db.Raw("SELECT COUNT(*) FROM " + table).Scan(&n)
		if n != 0 {
			t.Errorf("%s has %d rows after task delete", table, n)
		}
	}

	mustExec(t, db, `DELETE FROM users WHERE id = 1`)
	var supervisor sql.NullInt64
	db.Raw(`SELECT supervisor_id FROM users WHERE id = 2`).Scan(&supervisor)
	if supervisor.Valid {
		t.Errorf("supervisor_id = %d, want NULL", supervisor.Int64)
	}

	mustExec(t, db, `DELETE FROM projects WHERE id = 1`)
	var project sql.NullInt64
	db.Raw(`SELECT project_id FROM teams WHERE id = 1`).Scan(&project)
	if project.Valid {
		t.Errorf("team project_id = %d, want NULL", project.Int64)
	}
}

func TestNarrowSprints_BackfillsName(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db, quietLogger())
	if err := r.UpTo("20240304110200_task_status_code_unique_per_project"); err != nil {
		t.Fatalf("UpTo: %v", err)
	}
	mustExec(t, db, `INSERT INTO projects(id, name) VALUES (1, 'a')`)
	mustExec(t, db, `INSERT INTO sprints(id, project_id, name_sprint) VALUES (1, 1, 'Sprint 1')`)

	if err := r.UpTo("20240415093000_narrow_sprints"); err != nil {
		t.Fatalf("narrow: %v", err)
	}
	var name string
	db.Raw(`SELECT name FROM sprints WHERE id = 1`).Scan(&name)
	if name != "Sprint 1" {
		t.Errorf("name = %q, want backfilled from name_sprint", name)
	}

	if _, err := r.Down(1); err != nil {
		t.Fatalf("Down: %v", err)
	}
	var legacy string
	db.Raw(`SELECT name_sprint FROM sprints WHERE id = 1`).Scan(&legacy)
	if legacy != "Sprint 1" {
		t.Errorf("name_sprint = %q after rollback", legacy)
	}
}
