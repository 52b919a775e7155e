package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema for the postgres storage backend.
var Migrations = migrate.NewMigrations()
