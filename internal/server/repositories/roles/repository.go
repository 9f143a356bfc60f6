// Package roles declares the repository contract for role rows and a
// user's active permission documents.
package roles

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository defines role persistence operations used by permission
// resolution and registration.
type Repository interface {
	// FindByName returns the role with the given name, or common.ErrNotFound.
	FindByName(ctx context.Context, name string) (*models.Role, error)

	// ActiveDocumentsByUser returns the permission documents of the user's
	// active roles. Inactive roles are filtered here so that the pure
	// resolver never sees them.
	ActiveDocumentsByUser(ctx context.Context, userID string) ([]json.RawMessage, error)
}
