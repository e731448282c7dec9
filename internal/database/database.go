package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// InitDB opens the database and applies all pending migrations. With an empty
// primaryURL it opens a local SQLite file (or ":memory:"); otherwise it
// connects to the remote libSQL primary. The returned teardown closes the
// connection.
func InitDB(dbPath string, primaryURL string, authToken string) (*sql.DB, func(), error) {
	var (
		db      *sql.DB
		dialect goose.Dialect
		err     error
	)
	if primaryURL == "" {
		log.Info("Initializing local SQLite database", "path", dbPath)
		db, err = sql.Open("sqlite3", localDSN(dbPath))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open local database: %w", err)
		}
		// SQLite serialises writers anyway, and ":memory:" is per connection.
		db.SetMaxOpenConns(1)
		dialect = goose.DialectSQLite3
	} else {
		log.Info("Initializing Turso database", "url", primaryURL)
		db, err = sql.Open("libsql", primaryURL+"?authToken="+authToken)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db %s: %w", primaryURL, err)
		}
		dialect = goose.DialectTurso
	}

	teardown := func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		teardown()
		return nil, nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := migrate(db, dialect); err != nil {
		teardown()
		return nil, nil, err
	}

	log.Info("Database initialized successfully")
	return db, teardown, nil
}

func localDSN(dbPath string) string {
	if dbPath == ":memory:" {
		return "file::memory:?_foreign_keys=on"
	}
	return "file:" + dbPath + "?_foreign_keys=on"
}

func migrate(db *sql.DB, dialect goose.Dialect) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	provider, err := goose.NewProvider(dialect, db, sub)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		log.Debug("Applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	log.Info("Migrations up to date", "applied", len(results))
	return nil
}
