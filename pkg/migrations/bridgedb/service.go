// Package bridgedb holds all the migrations for the orchestrator database
package bridgedb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the migration collection the migrate command runs
var Migrations = migrate.NewMigrations()
