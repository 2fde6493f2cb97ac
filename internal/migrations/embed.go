// Package migrations provides embedded SQL migration files for the
// per-volume catalog store. Migrations are ordered; the store applies all
// pending ones inside a single transaction, tracked via PRAGMA user_version.
package migrations

import (
	_ "embed"
)

//go:embed sql/001_initial.sql
var initialSQL string

//go:embed sql/002_progress_index.sql
var progressIndexSQL string

// Catalog returns the ordered catalog migrations. Index i upgrades a store
// from user_version i to i+1.
func Catalog() []string {
	return []string{
		initialSQL,
		progressIndexSQL,
	}
}
