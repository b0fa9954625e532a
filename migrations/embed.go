// Package migrations embeds the versioned schema of each supported database.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// SQLite returns the SQLite migration directory.
func SQLite() fs.FS {
	return sub("sqlite")
}

// Postgres returns the PostgreSQL migration directory.
func Postgres() fs.FS {
	return sub("postgres")
}

func sub(dir string) fs.FS {
	s, err := fs.Sub(FS, dir)
	if err != nil {
		panic(err)
	}
	return s
}
