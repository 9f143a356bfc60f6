// Package common defines shared constants and sentinel errors used across
// client and server layers of authkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal = errors.New("internal error")

	// ErrUnauthorized is the single generic failure for login and renewal.
	// Callers must not be able to tell a missing account from a bad password
	// or a stale session.
	ErrUnauthorized = errors.New("invalid credentials or session")

	// ErrEmailTaken is returned by registration when the email is already in use.
	ErrEmailTaken = errors.New("email already registered")

	// Token lifecycle errors. ErrInvalidToken covers not-found, revoked and
	// malformed refresh tokens alike; the caller cannot distinguish them.
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenAlreadyUsed = errors.New("token already used")

	// ErrMalformedCredential is returned by the access-token codec when the
	// presented string is not a decodable credential.
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrRenewalFailed is terminal for the client session: the controller
	// logs out instead of retrying.
	ErrRenewalFailed = errors.New("session renewal failed")
)
