package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
)

// key names in the credentials table.
const (
	keyEmail            = "email"
	keyRefreshToken     = "refresh_token"
	keyRefreshExpiresAt = "refresh_expires_at"
)

// SQLiteStore is a Store over a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an already-migrated database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save writes the full state in one transaction, replacing any previous
// material.
func (s *SQLiteStore) Save(ctx context.Context, st *State) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := set(ctx, tx, keyEmail, st.Email); err != nil {
			return err
		}
		if err := set(ctx, tx, keyRefreshToken, st.RefreshToken); err != nil {
			return err
		}
		return set(ctx, tx, keyRefreshExpiresAt, st.RefreshExpiresAt.Format(time.RFC3339))
	})
}

// Load reads the cached state. A missing or partially written cache yields
// (nil, nil).
func (s *SQLiteStore) Load(ctx context.Context) (*State, error) {
	email, err := get(ctx, s.db, keyEmail)
	if err != nil {
		return nil, err
	}
	token, err := get(ctx, s.db, keyRefreshToken)
	if err != nil {
		return nil, err
	}
	expires, err := get(ctx, s.db, keyRefreshExpiresAt)
	if err != nil {
		return nil, err
	}
	if token == "" || expires == "" {
		return nil, nil
	}

	expiresAt, err := time.Parse(time.RFC3339, expires)
	if err != nil {
		return nil, fmt.Errorf("parsing cached expiry: %w", err)
	}
	return &State{Email: email, RefreshToken: token, RefreshExpiresAt: expiresAt}, nil
}

// Clear wipes all cached material.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}

func get(ctx context.Context, db dbx.DBTX, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading credentials[%s]: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, db dbx.DBTX, key string, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing credentials[%s]: %w", key, err)
	}
	return nil
}
