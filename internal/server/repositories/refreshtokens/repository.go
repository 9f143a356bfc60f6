// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository defines row-level operations on refresh tokens. Rotation
// semantics (find, revoke, reissue as one unit) live in the service layer,
// which runs these calls inside a transaction.
type Repository interface {
	// Create stores a new refresh token row. A missing ID is generated.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindByHash looks up a refresh token by the digest of its opaque value.
	// Returns common.ErrNotFound when the token is absent.
	FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error)

	// Revoke flips is_revoked on the row, guarded by is_revoked = false.
	// The boolean reports whether this call performed the flip; a false
	// result means the row was missing or already revoked.
	Revoke(ctx context.Context, id string) (bool, error)

	// RevokeAllForUser revokes every non-revoked token of the user and
	// returns how many rows were touched.
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)

	// ListByUser returns all token rows of a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.RefreshToken, error)

	// DeleteExpired removes rows whose expiry is before the given instant.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
