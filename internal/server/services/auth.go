// Package services contains server-side business logic. This file
// implements AuthService: registration, login, permission checks, and the
// refresh-token rotation chain.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/rbac"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// refreshTokenBytes is the entropy of an opaque refresh token value
// (32 bytes = 256 bits, hex-encoded to 64 characters).
const refreshTokenBytes = 32

// dummyPasswordHash absorbs a verify call when the account does not exist,
// keeping login latency independent of account existence.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// TokenPair bundles a short-lived access token and a long-lived refresh
// token, each with its expiry instant. The refresh value is shown to the
// caller exactly once; only its digest is persisted.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthService provides authentication-related operations:
//   - Register: create users with the default role
//   - Login: verify credentials and mint a token pair
//   - Rotate: rotate refresh tokens and mint new access tokens
//   - Revoke / RevokeAll: invalidate sessions
//   - Can: resolve a permission for a user's active role set
type AuthService struct {
	db              *sql.DB
	repos           repomanager.RepositoryManager
	codec           *auth.Codec
	hasher          PasswordHasher
	logger          logging.Logger
	refreshValidity time.Duration
	defaultRole     string

	// nowFunc is a test seam.
	nowFunc func() time.Time
}

// NewAuthService constructs an AuthService using repositories and server
// config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec, hasher PasswordHasher, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:              db,
		repos:           m,
		codec:           codec,
		hasher:          hasher,
		logger:          logger,
		refreshValidity: cfg.RefreshTokenValidity,
		defaultRole:     cfg.DefaultRoleName,
		nowFunc:         time.Now,
	}
}

// Register creates a new active user with the default role. The email must
// be unused; the password is stored as a hash only.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{Email: email, PasswordHash: hash, IsActive: true}
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repos.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		user = created
		return s.repos.Users(tx).AssignRoleByName(ctx, user.ID, s.defaultRole)
	}); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies the credentials and, on success, issues a fresh token
// pair and opens a new rotation chain. Missing account, wrong password and
// inactive account are all reported as the same common.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string, meta models.DeviceMeta) (*TokenPair, error) {
	user, err := s.repos.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.Verify(dummyPasswordHash, password)
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}
	if !s.hasher.Verify(user.PasswordHash, password) || !user.IsActive {
		return nil, common.ErrUnauthorized
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var issueErr error
		pair, issueErr = s.issuePair(ctx, tx, user.ID, meta)
		return issueErr
	}); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "login", "user_id", user.ID)
	return pair, nil
}

// Rotate exchanges a presented refresh token for a new pair. The old row
// is revoked and its successor created in one transaction, so there is no
// window where both are usable and no lost rotation on a crash in
// between. Not-found, revoked and expired tokens all fail with the same
// common.ErrInvalidToken.
func (s *AuthService) Rotate(ctx context.Context, presented string, meta models.DeviceMeta) (*TokenPair, error) {
	if presented == "" {
		return nil, common.ErrInvalidToken
	}
	hash := common.HashTokenValue(presented)

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.RefreshTokens(tx)

		token, err := repo.FindByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidToken
			}
			return err
		}
		if token.IsRevoked {
			// Replay of a rotated token. Deliberately indistinguishable
			// from not-found for the caller; logged for operators, who can
			// react with RevokeAll.
			s.logger.Warn(ctx, "revoked refresh token presented", "user_id", token.UserID, "token_id", token.ID)
			return common.ErrInvalidToken
		}
		if !token.Valid(s.nowFunc()) {
			return common.ErrInvalidToken
		}

		ok, err := repo.Revoke(ctx, token.ID)
		if err != nil {
			return err
		}
		if !ok {
			// A concurrent rotation of the same value won the flip.
			return common.ErrInvalidToken
		}

		var issueErr error
		pair, issueErr = s.issuePair(ctx, tx, token.UserID, meta)
		return issueErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Revoke marks the presented token revoked. Revoking a missing or
// already-revoked token is not an error.
func (s *AuthService) Revoke(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}
	repo := s.repos.RefreshTokens(s.db)

	token, err := repo.FindByHash(ctx, common.HashTokenValue(presented))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}
	if _, err := repo.Revoke(ctx, token.ID); err != nil {
		return err
	}
	return nil
}

// RevokeAll revokes every active session of the user. Used by logout-all
// and as the response to suspected token replay.
func (s *AuthService) RevokeAll(ctx context.Context, userID string) error {
	n, err := s.repos.RefreshTokens(s.db).RevokeAllForUser(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info(ctx, "revoked all sessions", "user_id", userID, "count", n)
	}
	return nil
}

// ListSessions returns the user's refresh-token rows for the active
// sessions surface.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]*models.RefreshToken, error) {
	return s.repos.RefreshTokens(s.db).ListByUser(ctx, userID)
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every open session, all in one transaction.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.repos.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrUnauthorized
		}
		return err
	}
	if !s.hasher.Verify(user.PasswordHash, oldPassword) {
		return common.ErrUnauthorized
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Users(tx).UpdatePasswordHash(ctx, userID, hash); err != nil {
			return err
		}
		_, err := s.repos.RefreshTokens(tx).RevokeAllForUser(ctx, userID)
		return err
	})
}

// Can resolves whether the user may perform the action, optionally in the
// context of a resource owner. Inactive users hold no permissions.
func (s *AuthService) Can(ctx context.Context, userID string, action string, rctx *rbac.ResourceContext) (bool, error) {
	user, err := s.repos.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !user.IsActive {
		return false, nil
	}

	raws, err := s.repos.Roles(s.db).ActiveDocumentsByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	docs, err := rbac.ParseAll(raws)
	if err != nil {
		return false, fmt.Errorf("parsing role documents: %w", err)
	}
	return rbac.Resolve(docs, action, rctx), nil
}

// CleanupExpired deletes refresh-token rows past their expiry. Row locks
// held by in-flight rotations serialize against the delete.
func (s *AuthService) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.repos.RefreshTokens(s.db).DeleteExpired(ctx, now)
}

// issuePair mints an access token and opens a new refresh-token row for
// the user over the given handle (transactional or not).
func (s *AuthService) issuePair(ctx context.Context, db dbx.DBTX, userID string, meta models.DeviceMeta) (*TokenPair, error) {
	access, accessExpiresAt, err := s.codec.Encode(userID)
	if err != nil {
		return nil, common.ErrInternal
	}

	value, err := common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return nil, common.ErrInternal
	}
	refreshExpiresAt := s.nowFunc().Add(s.refreshValidity)

	token := &models.RefreshToken{
		UserID:    userID,
		TokenHash: common.HashTokenValue(value),
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		ExpiresAt: refreshExpiresAt,
	}
	if err := s.repos.RefreshTokens(db).Create(ctx, token); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     value,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}
