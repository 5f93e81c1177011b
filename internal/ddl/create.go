// Package ddl defines a small table model and renders CREATE TABLE statements
// for the SQL dialects the database destinations write to.
//
// Consolidated output has no inferred schema: every column is text in the
// dialect's widest text type.
package ddl

import (
	"fmt"
	"strings"
)

// ColumnDef describes a single column.
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef holds the table name (optionally dotted, "schema.table") and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect captures the quoting and guard syntax of one SQL flavour.
type Dialect struct {
	Name     string
	TextType string
	// Quote quotes one identifier segment.
	Quote func(string) string
	// guard renders the "create unless it exists" form around a CREATE TABLE
	// statement for the quoted name.
	guard func(fqn, quoted, create string) string
}

var (
	// SQLite renders CREATE TABLE IF NOT EXISTS with "double" quotes.
	SQLite = Dialect{Name: "sqlite", TextType: "TEXT", Quote: doubleQuote, guard: ifNotExists}
	// Postgres renders CREATE TABLE IF NOT EXISTS with "double" quotes.
	Postgres = Dialect{Name: "postgres", TextType: "TEXT", Quote: doubleQuote, guard: ifNotExists}
	// SQLServer guards CREATE TABLE with OBJECT_ID and uses [bracket] quotes.
	SQLServer = Dialect{Name: "sqlserver", TextType: "NVARCHAR(MAX)", Quote: bracketQuote, guard: objectIDGuard}
)

// TextTable returns a definition with one nullable text column per name.
func (d Dialect) TextTable(fqn string, columns []string) TableDef {
	t := TableDef{FQN: fqn, Columns: make([]ColumnDef, len(columns))}
	for i, c := range columns {
		t.Columns[i] = ColumnDef{Name: c, SQLType: d.TextType, Nullable: true}
	}
	return t
}

// QuoteFQN quotes each dotted segment of name.
func (d Dialect) QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, d.Quote(p))
		}
	}
	return strings.Join(out, ".")
}

// CreateTableSQL renders a CREATE TABLE statement that is a no-op when the
// table already exists.
//
// Rules:
//   - t.FQN must be non-empty.
//   - Each column must have a non-empty Name and SQLType.
//   - NOT NULL is added when Nullable is false.
func (d Dialect) CreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, c.Name)
		}
		var sb strings.Builder
		sb.WriteString(d.Quote(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	quoted := d.QuoteFQN(fqn)
	create := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", quoted, strings.Join(cols, ",\n  "))
	return d.guard(fqn, quoted, create) + ";", nil
}

func doubleQuote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func bracketQuote(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

func ifNotExists(_, _, create string) string {
	return strings.Replace(create, "CREATE TABLE ", "CREATE TABLE IF NOT EXISTS ", 1)
}

func objectIDGuard(_, quoted, create string) string {
	lit := strings.ReplaceAll(quoted, `'`, `''`)
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\n%s", lit, create)
}
