// Package users declares the repository contract for user rows. The auth
// core only reads identity, active flag, password hash and role
// membership; profile fields belong to the surrounding CRUD system.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository defines user persistence operations used by the auth services.
type Repository interface {
	// Create stores a new user row. Returns common.ErrEmailTaken when the
	// email is already registered.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByEmail returns the user with the given email, or common.ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID returns the user with the given id, or common.ErrNotFound.
	FindByID(ctx context.Context, id string) (*models.User, error)

	// UpdatePasswordHash replaces the stored password hash.
	UpdatePasswordHash(ctx context.Context, id string, hash string) error

	// AssignRoleByName links the user to an active role. Assigning an
	// already-assigned role is not an error.
	AssignRoleByName(ctx context.Context, userID string, roleName string) error
}
