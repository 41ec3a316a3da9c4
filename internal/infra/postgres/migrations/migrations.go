package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered set applied by `quiz-service migrate` and on start.
var Migrations = migrate.NewMigrations()
