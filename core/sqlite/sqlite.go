// Package sqlite opens the pattern-library database with a consistent
// configuration across the two supported drivers.
//
// The default build uses the pure Go modernc.org/sqlite driver, so the
// binary cross-compiles without a C toolchain. Building with
// -tags cgo_sqlite (and CGO_ENABLED=1) swaps in mattn/go-sqlite3. The two
// drivers spell their connection pragmas differently, so each driver file
// carries its own DSN builder; callers only ever pass a filesystem path.
package sqlite

import (
	"database/sql"
	"fmt"
)

// busyTimeoutMS is applied to every connection. The API server holds
// concurrent read connections against the library while the CLI may write;
// without a busy timeout those writes would fail immediately with
// SQLITE_BUSY.
const busyTimeoutMS = 5000

// DriverName returns the registered database/sql driver name for the
// compiled-in implementation.
func DriverName() string {
	return driverName
}

// DriverType identifies the implementation: "purego" for
// modernc.org/sqlite, "cgo" for mattn/go-sqlite3.
func DriverType() string {
	return driverType
}

// IsCGO reports whether the CGO implementation is compiled in.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens (creating if needed) the database at path with the standard
// connection pragmas applied.
func Open(path string) (*sql.DB, error) {
	return sql.Open(driverName, dsn(path, false))
}

// OpenReadOnly opens the database at path in read-only mode.
func OpenReadOnly(path string) (*sql.DB, error) {
	return sql.Open(driverName, dsn(path, true))
}

// MustOpen opens the database at path and panics on error. Intended for
// tests and initialization code where failure is unrecoverable.
func MustOpen(path string) *sql.DB {
	db, err := Open(path)
	if err != nil {
		panic(fmt.Sprintf("sqlite: failed to open %s: %v", path, err))
	}
	return db
}

// Info describes the compiled-in driver, surfaced by the API health
// endpoint and the CLI for diagnosing build-mode mixups.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns the compiled-in driver description.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
