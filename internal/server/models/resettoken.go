package models

import (
	"database/sql"
	"time"
)

// PasswordResetToken is a single-use, short-lived credential-recovery
// token. Like refresh tokens, only the SHA-256 digest of the value is
// stored.
type PasswordResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	IPAddress string
	ExpiresAt time.Time
	IsUsed    bool
	UsedAt    sql.NullTime
	CreatedAt time.Time
}
