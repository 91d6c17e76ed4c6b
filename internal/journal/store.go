package journal

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeFormat sorts lexically in creation order.
const timeFormat = "2006-01-02T15:04:05.000000Z07:00"

// Store is a Recorder backed by SQLite.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

var _ Recorder = (*Store)(nil)

// Open opens or creates the journal database at dbPath.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{
		conn:   conn,
		logger: logger,
		dbPath: dbPath,
	}
	if err := store.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	logger.Debug("Opened journal", "path", dbPath)
	return store, nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			remote TEXT,
			method TEXT,
			path TEXT,
			outcome TEXT NOT NULL,
			code TEXT,
			bytes INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_entries_outcome ON entries(outcome);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Record inserts entry.
func (s *Store) Record(entry *Entry) error {
	_, err := s.conn.Exec(`
		INSERT INTO entries (id, remote, method, path, outcome, code, bytes, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		nullString(entry.Remote),
		nullString(entry.Method),
		nullString(entry.Path),
		entry.Outcome,
		nullString(entry.Code),
		entry.Bytes,
		entry.DurationMs,
		entry.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to record entry: %w", err)
	}
	return nil
}

// List returns entries matching opts, newest first. Limit defaults to 20 and
// is capped at 500.
func (s *Store) List(opts ListOptions) (*ListResponse, error) {
	var args []interface{}
	whereClause := ""
	if len(opts.Outcome) > 0 {
		placeholders := make([]string, len(opts.Outcome))
		for i, outcome := range opts.Outcome {
			placeholders[i] = "?"
			args = append(args, outcome)
		}
		whereClause = fmt.Sprintf("WHERE outcome IN (%s)", strings.Join(placeholders, ","))
	}

	var totalCount int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM entries %s", whereClause)
	if err := s.conn.QueryRow(countQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 500 {
		limit = 500
	}

	query := fmt.Sprintf(`
		SELECT id, remote, method, path, outcome, code, bytes, duration_ms, created_at
		FROM entries %s
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, whereClause)
	args = append(args, limit, opts.Offset)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []*Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return &ListResponse{Entries: entries, TotalCount: totalCount}, nil
}

// Prune removes entries older than retention and returns how many went.
func (s *Store) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(timeFormat)

	result, err := s.conn.Exec(`DELETE FROM entries WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune entries: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Pruned journal", "removed", n, "retention", retention)
	}
	return n, nil
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var entry Entry
	var remote, method, path, code sql.NullString
	var createdAt string

	err := rows.Scan(
		&entry.ID,
		&remote,
		&method,
		&path,
		&entry.Outcome,
		&code,
		&entry.Bytes,
		&entry.DurationMs,
		&createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry row: %w", err)
	}

	entry.Remote = remote.String
	entry.Method = method.String
	entry.Path = path.String
	entry.Code = code.String
	if t, err := time.Parse(timeFormat, createdAt); err == nil {
		entry.CreatedAt = t
	}
	return &entry, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
