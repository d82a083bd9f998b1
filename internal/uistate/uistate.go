// Package uistate persists per-frame UI state (expansion/collapse of
// the layer list) across sessions. This is deliberately the only
// persisted state in the engine: the document itself lives wherever the
// embedding application keeps it.
package uistate

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - frame_expansion table
const currentSchemaVersion = 1

// Store persists frame expansion state in SQLite.
// Uses WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens the UI state database at the given path.
// Applies required pragmas and migrations automatically; idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SetExpanded records whether a frame's layer list is expanded.
func (s *Store) SetExpanded(ctx context.Context, frameID string, expanded bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO frame_expansion (frame_id, expanded)
		VALUES (?, ?)
		ON CONFLICT(frame_id) DO UPDATE SET
			expanded = excluded.expanded,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, frameID, boolToInt(expanded))
	if err != nil {
		return fmt.Errorf("set expansion for frame %s: %w", frameID, err)
	}
	return nil
}

// Expanded returns a frame's expansion state. Frames never recorded
// default to expanded.
func (s *Store) Expanded(ctx context.Context, frameID string) (bool, error) {
	var v int
	err := s.db.QueryRowContext(ctx,
		"SELECT expanded FROM frame_expansion WHERE frame_id = ?", frameID,
	).Scan(&v)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read expansion for frame %s: %w", frameID, err)
	}
	return v != 0, nil
}

// List returns the full flat expansion list keyed by frame id.
func (s *Store) List(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT frame_id, expanded FROM frame_expansion")
	if err != nil {
		return nil, fmt.Errorf("list expansion state: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		var v int
		if err := rows.Scan(&id, &v); err != nil {
			return nil, fmt.Errorf("scan expansion row: %w", err)
		}
		out[id] = v != 0
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expansion rows: %w", err)
	}
	return out, nil
}

// Prune removes entries for frames no longer in the document, so
// deleted frames do not accumulate forever.
func (s *Store) Prune(ctx context.Context, liveFrameIDs []string) error {
	if len(liveFrameIDs) == 0 {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM frame_expansion"); err != nil {
			return fmt.Errorf("prune all expansion state: %w", err)
		}
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin prune: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "CREATE TEMP TABLE live_frames (frame_id TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	for _, id := range liveFrameIDs {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO live_frames (frame_id) VALUES (?)", id); err != nil {
			return fmt.Errorf("stage live frame %s: %w", id, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM frame_expansion
		WHERE frame_id NOT IN (SELECT frame_id FROM live_frames)
	`); err != nil {
		return fmt.Errorf("prune expansion state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE live_frames"); err != nil {
		return fmt.Errorf("drop temp table: %w", err)
	}
	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}
