// Package sqlite selects the SQLite driver for the catalog store.
// The default build uses the pure Go modernc.org/sqlite driver so the
// binary cross-compiles without a C toolchain; building with
// `-tags cgo_sqlite` (and CGO_ENABLED=1) switches to mattn/go-sqlite3.
package sqlite

import (
	"database/sql"
	"fmt"
)

// openPragmas are applied to every catalog connection. The catalog is a
// single-writer store, so WAL plus a busy timeout covers concurrent
// readers during CLI imports.
var openPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Open opens the database at path with the selected driver and applies
// the catalog pragmas.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open %s: %w", path, err)
	}
	for _, pragma := range openPragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}
	return db, nil
}

// Info describes the compiled-in driver, reported by the health endpoint
// and the version command.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo reports the driver selected at build time.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      driverType == "cgo",
		Package:    driverPackage,
	}
}
