package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/truthlens/internal/model"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no entry matches the id for the user
var ErrNotFound = errors.New("history entry not found")

// Fixed-width layout so created_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists analysis history in SQLite, partitioned by user
type Store struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) the history database at path
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(2)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS history (
			id          TEXT    PRIMARY KEY,
			user        TEXT    NOT NULL,
			created_at  TEXT    NOT NULL,
			kind        TEXT    NOT NULL,
			title       TEXT    NOT NULL,
			preview     TEXT    NOT NULL,
			content     TEXT    NOT NULL,
			confidence  INTEGER NOT NULL,
			result_json TEXT    NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_user_created ON history(user, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.conn.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w\nstatement: %s", err, stmt)
		}
	}
	return nil
}

// Save stores an entry. An empty id is replaced with a new uuid.
func (s *Store) Save(ctx context.Context, e model.HistoryEntry) (model.HistoryEntry, error) {
	if e.User == "" {
		return e, fmt.Errorf("history entry has no user")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	result, err := json.Marshal(e.Result)
	if err != nil {
		return e, fmt.Errorf("marshal result: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO history (id, user, created_at, kind, title, preview, content, confidence, result_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.User, e.CreatedAt.UTC().Format(timeLayout), string(e.Kind),
		e.Title, e.Preview, e.Content, e.Confidence, string(result),
	)
	if err != nil {
		return e, fmt.Errorf("insert history entry: %w", err)
	}
	return e, nil
}

// Get returns one entry owned by user
func (s *Store) Get(ctx context.Context, user, id string) (model.HistoryEntry, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, user, created_at, kind, title, preview, content, confidence, result_json
		 FROM history WHERE user = ? AND id = ?`, user, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.HistoryEntry{}, ErrNotFound
	}
	return e, err
}

// List returns the user's entries, newest first, narrowed by the filter
func (s *Store) List(ctx context.Context, f model.HistoryFilter) ([]model.HistoryEntry, error) {
	var (
		where = []string{"user = ?"}
		args  = []any{f.User}
	)

	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	// SQLite's lower() folds ASCII only, so search runs on the Go side
	search := strings.ToLower(strings.TrimSpace(f.Search))

	query := `SELECT id, user, created_at, kind, title, preview, content, confidence, result_json
		FROM history WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC, rowid DESC`
	if f.Limit > 0 && search == "" {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if search != "" && !matches(e, search) {
			continue
		}
		entries = append(entries, e)
		if f.Limit > 0 && len(entries) == f.Limit {
			break
		}
	}
	return entries, rows.Err()
}

// matches reports whether the lowercased query occurs in the title or content
func matches(e model.HistoryEntry, query string) bool {
	return strings.Contains(strings.ToLower(e.Title), query) ||
		strings.Contains(strings.ToLower(e.Content), query)
}

// Delete removes one entry owned by user
func (s *Store) Delete(ctx context.Context, user, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM history WHERE user = ? AND id = ?`, user, id)
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every entry owned by user and returns how many were removed
func (s *Store) Clear(ctx context.Context, user string) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM history WHERE user = ?`, user)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

// Count returns how many entries the user has
func (s *Store) Count(ctx context.Context, user string) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM history WHERE user = ?`, user).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (model.HistoryEntry, error) {
	var (
		e          model.HistoryEntry
		createdAt  string
		kind       string
		resultJSON string
	)

	if err := row.Scan(&e.ID, &e.User, &createdAt, &kind, &e.Title, &e.Preview,
		&e.Content, &e.Confidence, &resultJSON); err != nil {
		return e, err
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return e, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	e.CreatedAt = t
	e.Kind = model.Kind(kind)

	if err := json.Unmarshal([]byte(resultJSON), &e.Result); err != nil {
		return e, fmt.Errorf("unmarshal result %s: %w", e.ID, err)
	}
	return e, nil
}
