package migrations

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Column describes one column as reported by PRAGMA table_info.
type Column struct {
	Name    string
	Type    string
	NotNull bool
	Default string
	PK      bool
}

// ForeignKey describes one foreign key as reported by PRAGMA foreign_key_list.
type ForeignKey struct {
	From     string
	Table    string
	To       string
	OnUpdate string
	OnDelete string
}

// Index describes one index. Indexes created implicitly for UNIQUE or
// PRIMARY KEY constraints are named "auto" since SQLite derives their names
// from the table they were created on.
type Index struct {
	Name    string
	Unique  bool
	Columns []string
}

// TableSchema is the observable shape of a table.
type TableSchema struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
	Indexes     []Index
}

// Schema maps table names to their shape.
type Schema map[string]TableSchema

// Snapshot reads the current shape of every user table except the
// migration bookkeeping table.
func Snapshot(db *gorm.DB) (Schema, error) {
	var names []string
	err := db.Raw(`SELECT name FROM sqlite_master
        WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name <> ?
        ORDER BY name`, TableName).Scan(&names).Error
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	out := make(Schema, len(names))
	for _, name := range names {
		ts, err := describeTable(db, name)
		if err != nil {
			return nil, err
		}
		out[name] = ts
	}
	return out, nil
}

// Tables returns the table names in the schema, sorted.
func (s Schema) Tables() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Diff lists human readable differences between two schemas. An empty
// result means both describe the same tables, columns, foreign keys and
// indexes.
func (s Schema) Diff(other Schema) []string {
	var diffs []string
	for _, name := range s.Tables() {
		theirs, ok := other[name]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("table %s missing", name))
			continue
		}
		mine := s[name]
		if a, b := mine.String(), theirs.String(); a != b {
			diffs = append(diffs, fmt.Sprintf("table %s differs:\n  was: %s\n  now: %s", name, a, b))
		}
	}
	for _, name := range other.Tables() {
		if _, ok := s[name]; !ok {
			diffs = append(diffs, fmt.Sprintf("table %s added", name))
		}
	}
	return diffs
}

// String renders the table in a canonical, order independent form.
func (t TableSchema) String() string {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		cols = append(cols, fmt.Sprintf("%s %s notnull=%t default=%s pk=%t", c.Name, c.Type, c.NotNull, c.Default, c.PK))
	}
	sort.Strings(cols)

	fks := make([]string, 0, len(t.ForeignKeys))
	for _, fk := range t.ForeignKeys {
		fks = append(fks, fmt.Sprintf("%s->%s.%s update=%s delete=%s", fk.From, fk.Table, fk.To, fk.OnUpdate, fk.OnDelete))
	}
	sort.Strings(fks)

	idx := make([]string, 0, len(t.Indexes))
	for _, ix := range t.Indexes {
		idx = append(idx, fmt.Sprintf("%s(%s) unique=%t", ix.Name, strings.Join(ix.Columns, ","), ix.Unique))
	}
	sort.Strings(idx)

	return fmt.Sprintf("columns[%s] fks[%s] indexes[%s]",
		strings.Join(cols, "; "), strings.Join(fks, "; "), strings.Join(idx, "; "))
}

// Column returns the named column, if present.
func (t TableSchema) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Index returns the index covering exactly the given columns, if present.
func (t TableSchema) Index(columns ...string) (Index, bool) {
	want := strings.Join(columns, ",")
	for _, ix := range t.Indexes {
		if strings.Join(ix.Columns, ",") == want {
			return ix, true
		}
	}
	return Index{}, false
}

// ForeignKey returns the foreign key declared on the given column, if present.
func (t TableSchema) ForeignKey(column string) (ForeignKey, bool) {
	for _, fk := range t.ForeignKeys {
		if fk.From == column {
			return fk, true
		}
	}
	return ForeignKey{}, false
}

func describeTable(db *gorm.DB, name string) (TableSchema, error) {
	ts := TableSchema{Name: name}

	cols, err := readColumns(db, name)
	if err != nil {
		return ts, err
	}
	ts.Columns = cols

	if ts.ForeignKeys, err = readForeignKeys(db, name); err != nil {
		return ts, err
	}
	if ts.Indexes, err = readIndexes(db, name); err != nil {
		return ts, err
	}
	return ts, nil
}

// The pool holds a single connection, so every PRAGMA result set is fully
// drained and closed before the next query is issued.

func readColumns(db *gorm.DB, tableName string) ([]Column, error) {
	rows, err := db.Raw("PRAGMA table_info(" + quote(tableName) + ")").Rows()
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", tableName, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid     int
			c       Column
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &c.Name, &c.Type, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", tableName, err)
		}
		c.NotNull = notNull != 0
		c.Default = dflt.String
		c.PK = pk != 0
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func readForeignKeys(db *gorm.DB, tableName string) ([]ForeignKey, error) {
	rows, err := db.Raw("PRAGMA foreign_key_list(" + quote(tableName) + ")").Rows()
	if err != nil {
		return nil, fmt.Errorf("foreign keys of %s: %w", tableName, err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var (
			id, seq int
			fk      ForeignKey
			to      sql.NullString
			match   string
		)
		if err := rows.Scan(&id, &seq, &fk.Table, &fk.From, &to, &fk.OnUpdate, &fk.OnDelete, &match); err != nil {
			return nil, fmt.Errorf("scan foreign key of %s: %w", tableName, err)
		}
		fk.To = to.String
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func readIndexes(db *gorm.DB, tableName string) ([]Index, error) {
	type listed struct {
		name   string
		unique bool
		origin string
	}

	rows, err := db.Raw("PRAGMA index_list(" + quote(tableName) + ")").Rows()
	if err != nil {
		return nil, fmt.Errorf("index list of %s: %w", tableName, err)
	}
	var found []listed
	for rows.Next() {
		var (
			seq, unique, partial int
			l                    listed
		)
		if err := rows.Scan(&seq, &l.name, &unique, &l.origin, &partial); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan index of %s: %w", tableName, err)
		}
		l.unique = unique != 0
		found = append(found, l)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("index list of %s: %w", tableName, err)
	}

	indexes := make([]Index, 0, len(found))
	for _, l := range found {
		cols, err := indexColumns(db, l.name)
		if err != nil {
			return nil, err
		}
		name := l.name
		if l.origin != "c" {
			name = "auto"
		}
		indexes = append(indexes, Index{Name: name, Unique: l.unique, Columns: cols})
	}
	return indexes, nil
}

func indexColumns(db *gorm.DB, index string) ([]string, error) {
	rows, err := db.Raw("PRAGMA index_info(" + quote(index) + ")").Rows()
	if err != nil {
		return nil, fmt.Errorf("index info %s: %w", index, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			seqno, cid int
			name       sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("scan index info %s: %w", index, err)
		}
		cols = append(cols, name.String)
	}
	return cols, rows.Err()
}
