// Package store persists parsed overview rows in one SQLite database
// per newsgroup and serves the subject/poster/date-filtered queries
// the NZB assembler and CLI tools need.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nntpidx/nzbidx/internal/overview"
)

// GroupStore wraps the *sql.DB for a single newsgroup.
type GroupStore struct {
	Newsgroup string
	DB        *sql.DB
	path      string
}

// Manager lazily opens and caches one GroupStore per newsgroup under
// DataDir, mirroring the one-database-per-group layout this system
// has always used.
type Manager struct {
	DataDir string

	mu     sync.Mutex
	stores map[string]*GroupStore
}

// NewManager returns a Manager rooted at dataDir. The directory is
// created on first use, not here.
func NewManager(dataDir string) *Manager {
	return &Manager{DataDir: dataDir, stores: make(map[string]*GroupStore)}
}

// Open returns the GroupStore for group, creating and migrating its
// database file on first access.
func (m *Manager) Open(group string) (*GroupStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gs, ok := m.stores[group]; ok {
		return gs, nil
	}

	if err := os.MkdirAll(m.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating data dir: %v", ErrStore, err)
	}
	dbPath := filepath.Join(m.DataDir, sanitizeGroupName(group)+".db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrStore, dbPath, err)
	}
	db.SetMaxOpenConns(1) // a single writer per group database avoids SQLITE_BUSY storms
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	gs := &GroupStore{Newsgroup: group, DB: db, path: dbPath}
	m.stores[group] = gs
	return gs, nil
}

// Close closes every open GroupStore.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for group, gs := range m.stores {
		if err := gs.DB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: closing %s: %v", ErrStore, group, err)
		}
		delete(m.stores, group)
	}
	return firstErr
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA wal_autocheckpoint = 1000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%w: pragma %q: %v", ErrStore, p, err)
		}
	}
	return nil
}

// UpsertBatch inserts rows in one transaction, ignoring rows whose
// article_num already exists — overview fetches are re-runnable
// without producing duplicates.
func (gs *GroupStore) UpsertBatch(rows []overview.Row) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().Unix()
	return retryableTx(gs.DB, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO articles
				(article_num, message_id, subject, poster, date_string, date_unix, "references", bytes_len, line_count, xref, imported_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(article_num) DO NOTHING
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range rows {
			if _, err := stmt.Exec(
				r.ArticleNum, r.MessageID, r.Subject, r.Poster, r.DateRaw,
				nullInt64(r.DateUnix), r.References, nullUint32(r.BytesLen), nullUint32(r.LineCount),
				r.Xref, now,
			); err != nil {
				return fmt.Errorf("%w: inserting article %d: %v", ErrStore, r.ArticleNum, err)
			}
		}
		return nil
	})
}

func nullInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullUint32(v *uint32) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
