package migrations

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// table is a declarative description of one version of a table.
// Columns and constraints are raw SQLite definitions; indexes are full
// CREATE INDEX statements.
type table struct {
	name        string
	columns     []string
	constraints []string
	indexes     []string
}

func (t table) createSQL(name string) string {
	defs := make([]string, 0, len(t.columns)+len(t.constraints))
	defs = append(defs, t.columns...)
	defs = append(defs, t.constraints...)
	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", quote(name), strings.Join(defs, ",\n    "))
}

func (t table) columnNames() []string {
	names := make([]string, 0, len(t.columns))
	for _, def := range t.columns {
		names = append(names, columnName(def))
	}
	return names
}

func columnName(def string) string {
	fields := strings.Fields(def)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], "\"`[]")
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func createTable(db *gorm.DB, t table) error {
	if err := db.Exec(t.createSQL(t.name)).Error; err != nil {
		return fmt.Errorf("create table %s: %w", t.name, err)
	}
	for _, stmt := range t.indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index on %s: %w", t.name, err)
		}
	}
	return nil
}

func dropTable(db *gorm.DB, name string) error {
	if err := db.Exec("DROP TABLE IF EXISTS " + quote(name)).Error; err != nil {
		return fmt.Errorf("drop table %s: %w", name, err)
	}
	return nil
}

func addColumn(db *gorm.DB, tableName, def string) error {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quote(tableName), def)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("add column %s.%s: %w", tableName, columnName(def), err)
	}
	return nil
}

func dropColumn(db *gorm.DB, tableName, column string) error {
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quote(tableName), quote(column))
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("drop column %s.%s: %w", tableName, column, err)
	}
	return nil
}

// rebuildTable replaces the live table with the shape described by t,
// keeping the rows of every column both shapes share. SQLite cannot add or
// drop constraints in place, so this is how foreign keys and nullability
// change. Foreign key enforcement is suspended for the copy and the result
// is verified with foreign_key_check before commit.
func rebuildTable(db *gorm.DB, t table) error {
	existing, err := tableColumns(db, t.name)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return fmt.Errorf("rebuild %s: table does not exist", t.name)
	}
	have := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		have[c] = struct{}{}
	}
	var shared []string
	for _, c := range t.columnNames() {
		if _, ok := have[c]; ok {
			shared = append(shared, quote(c))
		}
	}

	if err := db.Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer db.Exec("PRAGMA foreign_keys = ON")

	tmp := t.name + "__new"
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(t.createSQL(tmp)).Error; err != nil {
			return fmt.Errorf("rebuild %s: create: %w", t.name, err)
		}
		if len(shared) > 0 {
			cols := strings.Join(shared, ", ")
			copyStmt := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", quote(tmp), cols, cols, quote(t.name))
			if err := tx.Exec(copyStmt).Error; err != nil {
				return fmt.Errorf("rebuild %s: copy rows: %w", t.name, err)
			}
		}
		if err := tx.Exec("DROP TABLE " + quote(t.name)).Error; err != nil {
			return fmt.Errorf("rebuild %s: drop old: %w", t.name, err)
		}
		if err := tx.Exec(fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quote(tmp), quote(t.name))).Error; err != nil {
			return fmt.Errorf("rebuild %s: rename: %w", t.name, err)
		}
		for _, stmt := range t.indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("rebuild %s: index: %w", t.name, err)
			}
		}
		return foreignKeyCheck(tx, t.name)
	})
}

func foreignKeyCheck(db *gorm.DB, tableName string) error {
	rows, err := db.Raw("PRAGMA foreign_key_check(" + quote(tableName) + ")").Rows()
	if err != nil {
		return fmt.Errorf("foreign key check %s: %w", tableName, err)
	}
	defer rows.Close()
	violations := 0
	for rows.Next() {
		violations++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("foreign key check %s: %w", tableName, err)
	}
	if violations > 0 {
		return fmt.Errorf("foreign key check %s: %d violating rows", tableName, violations)
	}
	return nil
}

func tableColumns(db *gorm.DB, tableName string) ([]string, error) {
	cols, err := readColumns(db, tableName)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return names, nil
}

func hasTable(db *gorm.DB, tableName string) (bool, error) {
	var count int64
	err := db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", tableName).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("lookup table %s: %w", tableName, err)
	}
	return count > 0, nil
}

// hasNamedConstraint looks for "CONSTRAINT <name>" in the stored DDL; SQLite
// keeps constraint names only there.
func hasNamedConstraint(db *gorm.DB, tableName, constraint string) (bool, error) {
	var ddl string
	err := db.Raw("SELECT COALESCE(sql, '') FROM sqlite_master WHERE type = 'table' AND name = ?", tableName).Scan(&ddl).Error
	if err != nil {
		return false, fmt.Errorf("read ddl of %s: %w", tableName, err)
	}
	normalized := strings.ToLower(strings.Join(strings.Fields(ddl), " "))
	needle := strings.ToLower("constraint " + constraint + " ")
	quoted := strings.ToLower(`constraint "` + constraint + `" `)
	return strings.Contains(normalized, needle) || strings.Contains(normalized, quoted), nil
}
