package store

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationFile is one parsed entry of migrations/NNNN_description.sql.
type migrationFile struct {
	Version     int
	Description string
	SQL         string
}

func loadMigrations() ([]migrationFile, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("%w: reading embedded migrations: %v", ErrStore, err)
	}

	var out []migrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m, err := parseMigrationName(e.Name())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
		body, err := migrationsFS.ReadFile(path.Join("migrations", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrStore, e.Name(), err)
		}
		m.SQL = string(body)
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// parseMigrationName expects the "NNNN_description.sql" convention.
func parseMigrationName(name string) (migrationFile, error) {
	base := strings.TrimSuffix(name, ".sql")
	parts := strings.SplitN(base, "_", 2)
	if len(parts) != 2 {
		return migrationFile{}, fmt.Errorf("malformed migration filename %q", name)
	}
	version, err := strconv.Atoi(parts[0])
	if err != nil {
		return migrationFile{}, fmt.Errorf("malformed migration version in %q: %w", name, err)
	}
	return migrationFile{Version: version, Description: parts[1]}, nil
}

// applyMigrations runs every migration newer than the schema_migrations
// high-water mark, each inside its own transaction.
func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, description TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("%w: creating schema_migrations: %v", ErrStore, err)
	}

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	var current int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("%w: reading schema version: %v", ErrStore, err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("%w: begin migration %d: %v", ErrStore, m.Version, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: applying migration %d (%s): %v", ErrStore, m.Version, m.Description, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`, m.Version, m.Description); err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: recording migration %d: %v", ErrStore, m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: committing migration %d: %v", ErrStore, m.Version, err)
		}
	}
	return nil
}
