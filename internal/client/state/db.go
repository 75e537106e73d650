package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/sitecrew/internal/client/migrations"
	"github.com/dmitrijs2005/sitecrew/internal/client/repositories/locations"
	"github.com/dmitrijs2005/sitecrew/internal/client/repositories/media"
	"github.com/dmitrijs2005/sitecrew/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/sitecrew/internal/client/repositories/queue"
	"github.com/dmitrijs2005/sitecrew/internal/dbx"

	_ "modernc.org/sqlite"
)

// Repositories groups the raw tables of the cache.
type Repositories struct {
	Metadata  metadata.Repository
	Locations locations.Repository
	Queue     queue.Repository
	Media     media.Repository
}

// NewSQLiteRepositories binds every repository to db, which may be a
// transaction.
func NewSQLiteRepositories(db dbx.DBTX) *Repositories {
	return &Repositories{
		Metadata:  metadata.NewSQLiteRepository(db),
		Locations: locations.NewSQLiteRepository(db),
		Queue:     queue.NewSQLiteRepository(db),
		Media:     media.NewSQLiteRepository(db),
	}
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (or creates) the SQLite file at dsn and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
