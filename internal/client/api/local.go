// Package api binds the session controller to an authentication backend.
// LocalBinding runs against in-process services; a remote transport would
// implement the same session.API.
package api

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/client/session"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

// LocalBinding implements session.API over an in-process AuthService.
type LocalBinding struct {
	auth *services.AuthService
	meta models.DeviceMeta
}

// NewLocalBinding wraps the service; meta is attached to every issued
// token for the sessions listing.
func NewLocalBinding(auth *services.AuthService, meta models.DeviceMeta) *LocalBinding {
	return &LocalBinding{auth: auth, meta: meta}
}

func (b *LocalBinding) Register(ctx context.Context, email, password string) error {
	_, err := b.auth.Register(ctx, email, password)
	return err
}

func (b *LocalBinding) Login(ctx context.Context, email, password string) (*session.TokenPair, error) {
	pair, err := b.auth.Login(ctx, email, password, b.meta)
	if err != nil {
		return nil, err
	}
	return convert(pair), nil
}

func (b *LocalBinding) Refresh(ctx context.Context, refreshToken string) (*session.TokenPair, error) {
	pair, err := b.auth.Rotate(ctx, refreshToken, b.meta)
	if err != nil {
		return nil, err
	}
	return convert(pair), nil
}

func (b *LocalBinding) Logout(ctx context.Context, refreshToken string) error {
	return b.auth.Revoke(ctx, refreshToken)
}

func convert(pair *services.TokenPair) *session.TokenPair {
	return &session.TokenPair{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}
