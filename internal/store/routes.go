// ABOUTME: SQLite implementation of the route store using modernc.org/sqlite
// ABOUTME: Provides tracker-project-to-channel persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Route binds one tracker project to one broadcast channel.
type Route struct {
	Tracker   string
	Project   string
	Channel   string
	CreatedAt time.Time
}

// SQLiteStore implements route persistence using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("route store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS routes (
			tracker TEXT NOT NULL,
			project TEXT NOT NULL,
			channel TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (tracker, project, channel)
		);

		CREATE INDEX IF NOT EXISTS idx_routes_tracker_project
			ON routes(tracker, project);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// AddRoute records that channel should receive notifications for the given
// tracker project. Returns false when the route already existed.
func (s *SQLiteStore) AddRoute(ctx context.Context, tracker, project, channel string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO routes (tracker, project, channel, created_at) VALUES (?, ?, ?, ?)`,
		tracker, project, channel, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("inserting route: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking insert result: %w", err)
	}
	return n > 0, nil
}

// RemoveRoute deletes a route. Returns false when no such route existed.
func (s *SQLiteStore) RemoveRoute(ctx context.Context, tracker, project, channel string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM routes WHERE tracker = ? AND project = ? AND channel = ?`,
		tracker, project, channel,
	)
	if err != nil {
		return false, fmt.Errorf("deleting route: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking delete result: %w", err)
	}
	return n > 0, nil
}

// ListRoutes returns all routes ordered by tracker, project, channel.
func (s *SQLiteStore) ListRoutes(ctx context.Context) ([]Route, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tracker, project, channel, created_at FROM routes ORDER BY tracker, project, channel`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying routes: %w", err)
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		var r Route
		if err := rows.Scan(&r.Tracker, &r.Project, &r.Channel, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating routes: %w", err)
	}
	return routes, nil
}

// Snapshot returns the current routes keyed by "tracker:project". The
// returned map is a fresh copy the caller owns; the resolver swaps it in
// atomically.
func (s *SQLiteStore) Snapshot(ctx context.Context) (map[string][]string, error) {
	routes, err := s.ListRoutes(ctx)
	if err != nil {
		return nil, err
	}

	snap := make(map[string][]string)
	for _, r := range routes {
		key := r.Tracker + ":" + r.Project
		snap[key] = append(snap[key], r.Channel)
	}
	return snap, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
