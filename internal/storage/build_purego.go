//go:build !sqlite_cgo

package storage

// Default build. Uses a pure Go SQLite with FTS5 compiled in, so no C
// toolchain is needed:
//
//	CGO_ENABLED=0 go build ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
