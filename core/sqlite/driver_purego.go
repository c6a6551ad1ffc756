//go:build !cgo_sqlite

package sqlite

import (
	"fmt"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)

// dsn builds a modernc-style data source name. modernc passes pragmas as
// repeated _pragma query parameters with call syntax.
func dsn(path string, readOnly bool) string {
	s := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", path, busyTimeoutMS)
	if readOnly {
		s += "&mode=ro"
	}
	return s
}
