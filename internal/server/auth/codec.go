// Package auth encodes and decodes the short-lived access credential.
// The credential is an HS256 JWT carrying the subject id, issued-at and
// expiry, so holders can inspect it without a persistence round-trip.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// Claims are the access-token claims. UserID duplicates the registered
// subject under a compact key for callers that unmarshal claims directly.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Codec mints and verifies access tokens with a shared HMAC secret.
type Codec struct {
	secret   []byte
	validity time.Duration

	// nowFunc is a test seam.
	nowFunc func() time.Time
}

// NewCodec returns a Codec signing with secret and issuing tokens valid for
// the given duration.
func NewCodec(secret []byte, validity time.Duration) *Codec {
	return &Codec{secret: secret, validity: validity, nowFunc: time.Now}
}

// Encode mints a token for userID and returns it with its expiry instant.
func (c *Codec) Encode(userID string) (string, time.Time, error) {
	now := c.nowFunc()
	expiresAt := now.Add(c.validity)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}
	return signed, expiresAt, nil
}

// Decode verifies the signature and standard claims and returns the parsed
// claims. Failure modes are typed: an expired token yields
// common.ErrTokenExpired, a bad signature common.ErrInvalidToken, and
// anything undecodable common.ErrMalformedCredential. Bad claim shapes
// never panic.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.nowFunc))

	switch {
	case err == nil && token.Valid:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, common.ErrInvalidToken
	default:
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedCredential, err)
	}
}

// DecodeUnverified parses claims without checking the signature. The client
// uses it to read its own token's expiry for renewal scheduling; it must
// never be used to authenticate anything.
func DecodeUnverified(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedCredential, err)
	}
	return claims, nil
}
