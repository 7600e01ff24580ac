package db

import (
	"context"
	"database/sql"
	"embed"
	"path"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/logger"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationsDir = "sqlite/migrations"

// migration is one embedded schema step. Its version is the numeric
// prefix of the file name.
type migration struct {
	file    string
	version string
}

func listMigrations() ([]migration, error) {
	entries, err := migrations.ReadDir(migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}
	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, _, _ := strings.Cut(entry.Name(), "_")
		out = append(out, migration{file: entry.Name(), version: version})
	}
	// 000_create_schema_migrations.sql runs first
	slices.SortFunc(out, func(a, b migration) int { return strings.Compare(a.file, b.file) })
	return out, nil
}

// Migrate runs all pending migrations.
// If logger is provided, logs migration progress; otherwise operates silently.
func Migrate(db *sql.DB, log *zap.SugaredLogger) error {
	return MigrateContext(context.Background(), db, log)
}

// MigrateContext is Migrate with a caller-supplied context. Each migration
// runs in its own transaction together with its schema_migrations row.
func MigrateContext(ctx context.Context, db *sql.DB, log *zap.SugaredLogger) error {
	log = logger.OrNop(log)
	list, err := listMigrations()
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range list {
		done, err := isApplied(ctx, db, m)
		if err != nil {
			return err
		}
		if done {
			log.Debugw("Skipping migration (already applied)",
				"migration", m.file,
				logger.FieldVersion, m.version)
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return err
		}
		applied++
		log.Infow("Applied migration",
			"migration", m.file,
			logger.FieldVersion, m.version)
	}

	log.Infow("Migrations complete",
		"applied", applied,
		"total_migrations", len(list))
	return nil
}

func isApplied(ctx context.Context, db *sql.DB, m migration) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", m.version).Scan(&exists)
	if err == nil {
		return exists, nil
	}
	if IsDatabaseClosed(err) {
		return false, errors.Wrap(ErrDatabaseClosed, err.Error())
	}
	// The table is created by migration 000
	if m.version != "000" {
		return false, errors.Newf("schema_migrations table missing, but migration is not 000: %s", m.file)
	}
	return false, nil
}

func apply(ctx context.Context, db *sql.DB, m migration) error {
	script, err := migrations.ReadFile(path.Join(migrationsDir, m.file))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.file)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", m.file)
	}
	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "execute %s", m.file)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "record %s", m.file)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit %s", m.file)
	}
	return nil
}
