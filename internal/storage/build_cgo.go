//go:build sqlite_cgo

package storage

// Compiled with the sqlite_cgo tag. mattn/go-sqlite3 needs its own
// sqlite_fts5 tag for the symbol search index:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo sqlite_fts5" ./...
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
