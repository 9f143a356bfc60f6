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
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// resetTokenBytes is the entropy of an opaque reset token value.
const resetTokenBytes = 32

// CredentialApplier runs inside the consume transaction and applies the new
// credential for the user. A non-nil error rolls back the whole
// consumption, leaving the token unused.
type CredentialApplier func(ctx context.Context, tx dbx.DBTX, userID string) error

// ResetService issues and consumes single-use password reset tokens.
type ResetService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	hasher   PasswordHasher
	logger   logging.Logger
	validity time.Duration

	// nowFunc is a test seam.
	nowFunc func() time.Time
}

// NewResetService constructs a ResetService from repositories and config.
func NewResetService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, cfg *config.Config, logger logging.Logger) *ResetService {
	return &ResetService{
		db:       db,
		repos:    m,
		hasher:   hasher,
		logger:   logger,
		validity: cfg.ResetTokenValidity,
		nowFunc:  time.Now,
	}
}

// Request issues a reset token for the account with the given email. The
// plaintext value is returned exactly once; only its digest is stored.
// Outstanding unused tokens of the same user are invalidated first.
//
// When no active account matches the email, Request returns ("", nil): the
// caller acknowledges the request identically either way, so responses do
// not reveal which emails are registered.
func (s *ResetService) Request(ctx context.Context, email string, meta models.DeviceMeta) (string, error) {
	user, err := s.repos.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if !user.IsActive {
		return "", nil
	}

	value, err := common.MakeRandHexString(resetTokenBytes)
	if err != nil {
		return "", common.ErrInternal
	}
	now := s.nowFunc()

	token := &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: common.HashTokenValue(value),
		IPAddress: meta.IPAddress,
		ExpiresAt: now.Add(s.validity),
	}
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.ResetTokens(tx)
		if _, err := repo.SupersedeForUser(ctx, user.ID, now); err != nil {
			return err
		}
		return repo.Create(ctx, token)
	}); err != nil {
		return "", err
	}

	s.logger.Info(ctx, "reset token issued", "user_id", user.ID)
	return value, nil
}

// Consume redeems a reset token and runs the applier in the same
// transaction as the used-flag flip. A token consumes successfully at most
// once; concurrent attempts with the same value lose with
// common.ErrTokenAlreadyUsed.
//
// Failure modes, checked in order: common.ErrInvalidToken for an unknown
// value, common.ErrTokenExpired past the deadline, common.ErrTokenAlreadyUsed
// for an already-redeemed token.
func (s *ResetService) Consume(ctx context.Context, presented string, apply CredentialApplier) error {
	if presented == "" {
		return common.ErrInvalidToken
	}
	hash := common.HashTokenValue(presented)

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.ResetTokens(tx)

		token, err := repo.FindByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidToken
			}
			return err
		}
		now := s.nowFunc()
		if now.After(token.ExpiresAt) {
			return common.ErrTokenExpired
		}
		if token.IsUsed {
			return common.ErrTokenAlreadyUsed
		}

		ok, err := repo.MarkUsed(ctx, token.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			// Lost the flip to a concurrent consume.
			return common.ErrTokenAlreadyUsed
		}

		if err := apply(ctx, tx, token.UserID); err != nil {
			return fmt.Errorf("applying credential: %w", err)
		}

		s.logger.Info(ctx, "reset token consumed", "user_id", token.UserID, "token_id", token.ID)
		return nil
	})
}

// ConfirmPassword consumes the token, stores the hash of the new password
// and revokes every open session of the user.
func (s *ResetService) ConfirmPassword(ctx context.Context, presented string, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.Consume(ctx, presented, func(ctx context.Context, tx dbx.DBTX, userID string) error {
		if err := s.repos.Users(tx).UpdatePasswordHash(ctx, userID, hash); err != nil {
			return err
		}
		_, err := s.repos.RefreshTokens(tx).RevokeAllForUser(ctx, userID)
		return err
	})
}

// CleanupExpired deletes reset-token rows past their expiry.
func (s *ResetService) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.repos.ResetTokens(s.db).DeleteExpired(ctx, now)
}
