package models

import (
	"encoding/json"
	"time"
)

// Role groups a permission document under a unique name. Inactive roles
// contribute nothing to permission resolution. Permissions is kept as raw
// JSON here; the rbac package parses it into a typed document once.
type Role struct {
	ID          string
	Name        string
	Description string
	Permissions json.RawMessage
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
