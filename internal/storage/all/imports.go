// Package all wires every built-in destination into the storage registry.
//
// It exists purely for side effects: importing it (even as a blank import)
// runs the init functions that register the file, sqlite, postgres and
// sqlserver schemes.
//
//	import _ "csvmerge/internal/storage/all"
package all

import (
	_ "csvmerge/internal/storage/file"
	_ "csvmerge/internal/storage/mssql"
	_ "csvmerge/internal/storage/postgres"
	_ "csvmerge/internal/storage/sqlite"
)
