// Package credentials persists the client's refresh material between runs
// so a new process can restore its session without re-entering the
// password. Only the refresh token is cached; access tokens are short
// lived and always re-minted.
package credentials

import (
	"context"
	"time"
)

// State is the persisted session material.
type State struct {
	Email            string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Store reads and writes the cached session material. Load returns
// (nil, nil) when nothing is cached.
type Store interface {
	Save(ctx context.Context, st *State) error
	Load(ctx context.Context) (*State, error)
	Clear(ctx context.Context) error
}
