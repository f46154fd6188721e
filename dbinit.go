package main

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/GuiaBolso/darwin"
	"github.com/diegoclair/sqlmigrator"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

// dbInit brings the schema up to date. It is safe to run on every start.
func dbInit(db *sql.DB) error {
	migrator := sqlmigrator.New(db, darwin.SqliteDialect{})
	if err := migrator.Migrate(sqlFiles, "sql"); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}
