package repo

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/packlane/packlane/internal/config"
	"github.com/packlane/packlane/internal/pkg/dbutil"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error
	switch cfg.Driver {
	case "", "sqlite":
		db, err = sql.Open("sqlite", cfg.Path)
		dbutil.SetDialect("sqlite")
	case "postgres":
		db, err = sql.Open("postgres", cfg.DSN)
		dbutil.SetDialect("postgres")
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func ApplyMigrations(db *sql.DB) error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		content, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}
