package store

// Drivers available to Open out of the box. sqlite covers the embedded
// single-file case without cgo; duckdb handles large snapshot archives.
import (
	_ "github.com/marcboeker/go-duckdb" // duckdb
	_ "modernc.org/sqlite"              // sqlite
)
