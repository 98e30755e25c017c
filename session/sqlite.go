package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/medsearch-ai/medsearch/schema"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	status     TEXT NOT NULL,
	response   TEXT NOT NULL DEFAULT '',
	citations  TEXT NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at DESC);
`

// SQLite persists sessions in a local database file so history survives
// restarts.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path and applies
// the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Create(ctx context.Context, query string) (*schema.Session, error) {
	now := time.Now()
	sess := &schema.Session{
		ID:        uuid.New().String(),
		Query:     query,
		Status:    schema.StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, query, status, response, citations, created_at, updated_at)
		 VALUES (?, ?, ?, '', '[]', ?, ?)`,
		sess.ID, sess.Query, sess.Status, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (*schema.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, status, response, citations, created_at, updated_at
		 FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

func (s *SQLite) Update(ctx context.Context, id string, fn func(*schema.Session)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, query, status, response, citations, created_at, updated_at
		 FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err != nil {
		return err
	}

	fn(sess)
	citations, err := json.Marshal(sess.Citations)
	if err != nil {
		return fmt.Errorf("encode citations: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET query = ?, status = ?, response = ?, citations = ?, updated_at = ?
		 WHERE id = ?`,
		sess.Query, sess.Status, sess.Response, string(citations), time.Now(), id)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) ListRecent(ctx context.Context, limit int) ([]*schema.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, status, response, citations, created_at, updated_at
		 FROM sessions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*schema.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*schema.Session, error) {
	var sess schema.Session
	var status, citations string
	err := row.Scan(&sess.ID, &sess.Query, &status, &sess.Response, &citations,
		&sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.Status = schema.SessionStatus(status)
	if err := json.Unmarshal([]byte(citations), &sess.Citations); err != nil {
		return nil, fmt.Errorf("decode citations: %w", err)
	}
	return &sess, nil
}
