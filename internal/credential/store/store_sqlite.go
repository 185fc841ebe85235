package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"vouch/internal/credential"
)

// SQLite persists credentials in a local SQLite database. It satisfies the
// same contract as Memory so either backend can sit behind a service.
//
// The connection pool is capped at a single connection: SQLite serializes
// writers anyway, and one connection makes InsertOrGet a single atomic
// statement sequence without needing a transaction retry loop.
type SQLite struct {
	db *sql.DB

	now func() time.Time
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS credentials (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	content    TEXT    NOT NULL UNIQUE,
	worker_id  TEXT    NOT NULL,
	issued_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_credentials_issued_at ON credentials (issued_at DESC, id DESC);
`

// NewSQLite opens (creating if needed) a SQLite-backed credential store at
// the given path. Parent directories are created if needed.
func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// InsertOrGet implements Store. The UNIQUE constraint on content makes the
// insert race-safe: a losing concurrent insert affects zero rows and the
// follow-up select observes the winner's record.
func (s *SQLite) InsertOrGet(ctx context.Context, content, workerID string) (credential.Record, bool, error) {
	issuedAt := s.now().UTC().Truncate(time.Millisecond)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (content, worker_id, issued_at) VALUES (?, ?, ?)
		 ON CONFLICT(content) DO NOTHING`,
		content, workerID, issuedAt.UnixMilli(),
	)
	if err != nil {
		return credential.Record{}, false, fmt.Errorf("insert credential: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return credential.Record{}, false, fmt.Errorf("insert credential: %w", err)
	}

	record, err := s.FindByContent(ctx, content)
	if err != nil {
		return credential.Record{}, false, fmt.Errorf("read back credential: %w", err)
	}
	return record, affected == 1, nil
}

// FindByContent implements Store.
func (s *SQLite) FindByContent(ctx context.Context, content string) (credential.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, worker_id, issued_at FROM credentials WHERE content = ?`, content)
	return scanRecord(row)
}

// ListAll implements Store.
func (s *SQLite) ListAll(ctx context.Context) ([]credential.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, worker_id, issued_at FROM credentials ORDER BY issued_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	records := make([]credential.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return records, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (credential.Record, error) {
	var record credential.Record
	var issuedAtMilli int64
	err := row.Scan(&record.ID, &record.Content, &record.WorkerID, &issuedAtMilli)
	if errors.Is(err, sql.ErrNoRows) {
		return credential.Record{}, ErrNotFound
	}
	if err != nil {
		return credential.Record{}, fmt.Errorf("scan credential: %w", err)
	}
	record.IssuedAt = time.UnixMilli(issuedAtMilli).UTC()
	return record, nil
}
