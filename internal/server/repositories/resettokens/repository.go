// Package resettokens declares the repository contract for single-use
// password reset tokens.
package resettokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository defines row-level operations on reset tokens. Consumption
// (mark used + apply the new credential) is composed in the service layer
// inside one transaction.
type Repository interface {
	// Create stores a new reset token row. A missing ID is generated.
	Create(ctx context.Context, token *models.PasswordResetToken) error

	// FindByHash looks up a token by the digest of its opaque value.
	// Returns common.ErrNotFound when absent.
	FindByHash(ctx context.Context, hash string) (*models.PasswordResetToken, error)

	// MarkUsed flips is_used, guarded by is_used = false. The boolean
	// reports whether this call won the flip.
	MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error)

	// SupersedeForUser marks every unused token of the user used, so a new
	// request invalidates older outstanding links. Returns rows touched.
	SupersedeForUser(ctx context.Context, userID string, usedAt time.Time) (int64, error)

	// DeleteExpired removes unused rows past their expiry. Consumed rows
	// stay behind as an audit trail.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
