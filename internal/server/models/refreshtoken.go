package models

import "time"

// RefreshToken is one session/device in a rotation chain. TokenHash holds
// the SHA-256 digest of the opaque value; the plaintext is returned to the
// caller exactly once at issue time and never stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	UserAgent string
	IPAddress string
	ExpiresAt time.Time
	IsRevoked bool
	CreatedAt time.Time
}

// Valid reports whether the token can still be used for renewal at the
// given instant.
func (t *RefreshToken) Valid(now time.Time) bool {
	return !t.IsRevoked && t.ExpiresAt.After(now)
}

// DeviceMeta carries the audit attributes captured when a token is issued.
type DeviceMeta struct {
	UserAgent string
	IPAddress string
}
