package repositories

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/avdeevko/cropguard/internal/migrations"
)

// RunMigrations applies the embedded schema migrations to the database.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}
