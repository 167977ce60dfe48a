// Package migrations embeds SQL migration files for the SQLite stores.
// Each store keeps its own numbered migrations in a subdirectory.
package migrations

import (
	"embed"
	"io/fs"
)

// files contains all SQL migration files embedded at compile time.
//
//go:embed metadata/*.sql topics/*.sql vectors/*.sql
var files embed.FS

// Metadata returns the migrations for the book metadata database.
func Metadata() fs.FS { return sub("metadata") }

// Topics returns the migrations for the topic registry database.
func Topics() fs.FS { return sub("topics") }

// Vectors returns the migrations for the vector index database.
func Vectors() fs.FS { return sub("vectors") }

func sub(dir string) fs.FS {
	fsys, err := fs.Sub(files, dir)
	if err != nil {
		// Only fails for invalid paths, which are fixed at compile time.
		panic(err)
	}
	return fsys
}
