// Package models defines the persistent row types shared by server
// repositories and services.
package models

import "time"

// User is the identity anchor. Roles are attached through the user_roles
// join table and loaded separately; this core only reads a user's id,
// active flag and role set.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
