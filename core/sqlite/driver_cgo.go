//go:build cgo_sqlite

// Build with: CGO_ENABLED=1 go build -tags cgo_sqlite

package sqlite

import (
	"fmt"

	_ "github.com/mattn/go-sqlite3" // CGO SQLite driver
)

const (
	driverName    = "sqlite3"
	driverType    = "cgo"
	driverPackage = "github.com/mattn/go-sqlite3"
)

// dsn builds a mattn-style data source name. mattn spells each pragma as
// its own underscore-prefixed query parameter.
func dsn(path string, readOnly bool) string {
	s := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=1", path, busyTimeoutMS)
	if readOnly {
		s += "&mode=ro"
	}
	return s
}
