// Package session manages the client-side authentication lifecycle: it
// holds the current token pair, renews the access token before expiry and
// guarantees that an explicit logout is never overwritten by a renewal
// finishing late.
package session

import (
	"context"
	"time"
)

// TokenPair is the client's view of the credentials returned by login and
// renewal.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// API is the authentication surface the controller talks to. The binding
// may be in-process or remote; the controller only relies on the error
// contract: renewal failures of any kind end the session.
type API interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}
