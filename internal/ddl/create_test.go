package ddl

import (
	"strings"
	"testing"
)

// TestCreateTableSQL verifies the rendered statements per dialect and the
// errors for invalid definitions.
func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		dialect     Dialect
		def         TableDef
		wantSQL     string
		errContains string
	}{
		{
			name:    "sqlite text table",
			dialect: SQLite,
			def:     SQLite.TextTable("merged", []string{"id", `na"me`}),
			wantSQL: "CREATE TABLE IF NOT EXISTS \"merged\" (\n  \"id\" TEXT,\n  \"na\"\"me\" TEXT\n);",
		},
		{
			name:    "postgres schema qualified",
			dialect: Postgres,
			def:     Postgres.TextTable("public.merged", []string{"id"}),
			wantSQL: "CREATE TABLE IF NOT EXISTS \"public\".\"merged\" (\n  \"id\" TEXT\n);",
		},
		{
			name:    "sqlserver guard",
			dialect: SQLServer,
			def:     SQLServer.TextTable("dbo.merged", []string{"a]b"}),
			wantSQL: "IF OBJECT_ID(N'[dbo].[merged]', N'U') IS NULL\nCREATE TABLE [dbo].[merged] (\n  [a]]b] NVARCHAR(MAX)\n);",
		},
		{
			name:    "not null",
			dialect: SQLite,
			def:     TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id", SQLType: "INTEGER"}}},
			wantSQL: "CREATE TABLE IF NOT EXISTS \"t\" (\n  \"id\" INTEGER NOT NULL\n);",
		},
		{
			name:        "empty FQN",
			dialect:     SQLite,
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "TEXT"}}},
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns",
			dialect:     Postgres,
			def:         TableDef{FQN: "t"},
			errContains: "at least one column is required",
		},
		{
			name:        "empty column name",
			dialect:     SQLServer,
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "TEXT"}}},
			errContains: "column with empty name",
		},
		{
			name:        "missing type",
			dialect:     SQLite,
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}},
			errContains: "missing SQLType",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.dialect.CreateTableSQL(tt.def)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("error = %v, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantSQL {
				t.Fatalf("SQL mismatch:\n got: %q\nwant: %q", got, tt.wantSQL)
			}
		})
	}
}
