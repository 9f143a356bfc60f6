package resettokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new reset token row.
func (r *PostgresRepository) Create(ctx context.Context, token *models.PasswordResetToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	query := `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.TokenHash, token.IPAddress, token.ExpiresAt); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// FindByHash returns the token row for the given value digest, or
// common.ErrNotFound.
func (r *PostgresRepository) FindByHash(ctx context.Context, hash string) (*models.PasswordResetToken, error) {
	query := `
		SELECT id, user_id, token_hash, ip_address, expires_at, is_used, used_at, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1
	`
	token := &models.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx, query, hash).Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.IPAddress,
		&token.ExpiresAt, &token.IsUsed, &token.UsedAt, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// MarkUsed flips is_used iff it is still false, so exactly one consumer of
// a token can win.
func (r *PostgresRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	query := `
		UPDATE password_reset_tokens
		SET is_used = true, used_at = $2
		WHERE id = $1 AND is_used = false
	`
	res, err := r.db.ExecContext(ctx, query, id, usedAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// SupersedeForUser marks all unused tokens of the user as used.
func (r *PostgresRepository) SupersedeForUser(ctx context.Context, userID string, usedAt time.Time) (int64, error) {
	query := `
		UPDATE password_reset_tokens
		SET is_used = true, used_at = $2
		WHERE user_id = $1 AND is_used = false
	`
	res, err := r.db.ExecContext(ctx, query, userID, usedAt)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// DeleteExpired removes unused rows past their expiry. Consumed rows are
// kept; their used_at column is the audit trail of the reset.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM password_reset_tokens
		WHERE expires_at < $1 AND is_used = false
	`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
