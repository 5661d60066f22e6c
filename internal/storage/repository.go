package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finboard/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteSessionStore keeps the session in a single-row table.
type SQLiteSessionStore struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteSessionStore(dbPath string, logger *log.Logger) (*SQLiteSessionStore, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteSessionStore{db: db, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (r *SQLiteSessionStore) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteSessionStore) Load(ctx context.Context) (Session, error) {
	var (
		s       Session
		savedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT token, username, saved_at FROM session WHERE id = 1`).Scan(&s.Token, &s.Username, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if t, perr := time.Parse(time.RFC3339, savedAt); perr == nil {
		s.SavedAt = t
	}
	return s, nil
}

func (r *SQLiteSessionStore) Save(ctx context.Context, s Session) error {
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session (id, token, username, saved_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET token = excluded.token, username = excluded.username, saved_at = excluded.saved_at`,
		s.Token, s.Username, s.SavedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	r.logger.InfoContext(ctx, "Session saved", log.FieldOperation, log.OpLogin, "username", s.Username)
	return nil
}

func (r *SQLiteSessionStore) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	r.logger.InfoContext(ctx, "Session cleared", log.FieldOperation, log.OpLogout)
	return nil
}
