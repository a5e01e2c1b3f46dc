package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"alkansya/internal/session"

	_ "modernc.org/sqlite"
)

// SessionRepository stores the session as a single row in SQLite
type SessionRepository struct {
	db *sql.DB
}

var _ session.Store = (*SessionRepository)(nil)

// NewSessionRepository opens (and migrates) the database at dbPath
func NewSessionRepository(dbPath string) (*SessionRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; sqlite serializes writes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SessionRepository{db: db}, nil
}

func (r *SessionRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get implements session.Store
func (r *SessionRepository) Get(ctx context.Context) (session.Session, error) {
	var (
		token    sql.NullString
		currency string
		userID   sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT token, currency, user_id FROM session WHERE id = 1`).
		Scan(&token, &currency, &userID)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, nil
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("select session: %w", err)
	}

	return session.Session{
		Token:    token.String,
		Currency: currency,
		UserID:   userID.String,
	}, nil
}

// Put implements session.Store
func (r *SessionRepository) Put(ctx context.Context, s session.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO session (id, token, currency, user_id, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			currency = excluded.currency,
			user_id = excluded.user_id,
			updated_at = excluded.updated_at`,
		nullable(s.Token), s.Currency, nullable(s.UserID), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// Clear implements session.Store
func (r *SessionRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
