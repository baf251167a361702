package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"netsim/internal/domain"
	"netsim/internal/repository"

	_ "modernc.org/sqlite"
)

// ErrInvalidName is returned for an empty or whitespace-only topology name
var ErrInvalidName = errors.New("topology name is required")

// Repository implements repository.Repository using SQLite
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var _ repository.Repository = (*Repository)(nil)

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db, now: time.Now}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS topologies (
		name TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		data JSON NOT NULL,
		device_count INTEGER NOT NULL DEFAULT 0,
		cable_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_topologies_updated ON topologies(updated_at);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return err
	}

	return r.addColumnIfNotExists("topologies", "description", "TEXT")
}

// addColumnIfNotExists adds a column to an existing table, leaving rows intact
func (r *Repository) addColumnIfNotExists(table, column, decl string) error {
	rows, err := r.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("failed to scan column info: %w", err)
		}
		if strings.EqualFold(name, column) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = r.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

// SaveTopology inserts or replaces a named topology
func (r *Repository) SaveTopology(ctx context.Context, name, description string, s *domain.Snapshot) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	args, err := topologyInsertArgs(name, description, s, r.now().UTC())
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO topologies (`+topologyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			data = excluded.data,
			device_count = excluded.device_count,
			cable_count = excluded.cable_count,
			description = COALESCE(excluded.description, topologies.description),
			updated_at = excluded.updated_at
	`, args...)

	if err != nil {
		return fmt.Errorf("failed to save topology: %w", err)
	}

	return nil
}

// GetTopology retrieves a saved topology by name
func (r *Repository) GetTopology(ctx context.Context, name string) (*domain.Snapshot, error) {
	var row topologyRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+topologyColumns+`
		FROM topologies WHERE name = ?
	`, strings.TrimSpace(name)).Scan(row.scanArgs()...)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query topology: %w", err)
	}

	return row.toSnapshot()
}

// ListTopologies returns summaries of all saved topologies, newest first
func (r *Repository) ListTopologies(ctx context.Context) ([]repository.SavedTopology, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+topologyColumns+`
		FROM topologies
		ORDER BY updated_at DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query topologies: %w", err)
	}
	defer rows.Close()

	saved := make([]repository.SavedTopology, 0)
	for rows.Next() {
		var row topologyRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan topology: %w", err)
		}
		saved = append(saved, row.toSummary())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topologies: %w", err)
	}

	return saved, nil
}

// DeleteTopology removes a saved topology. Deleting a missing name is not an
// error.
func (r *Repository) DeleteTopology(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM topologies WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("failed to delete topology: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
