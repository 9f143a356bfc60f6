package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

func TestCodec_EncodeDecode(t *testing.T) {
	c := NewCodec([]byte("k1"), 15*time.Minute)

	token, expiresAt, err := c.Encode("u1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := c.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1", claims.Subject)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, expiresAt, claims.ExpiresAt.Time, time.Second)
}

func TestCodec_Decode_Expired(t *testing.T) {
	c := NewCodec([]byte("k1"), time.Minute)

	issued := time.Now().Add(-time.Hour)
	c.nowFunc = func() time.Time { return issued }
	token, _, err := c.Encode("u1")
	require.NoError(t, err)

	c.nowFunc = time.Now
	_, err = c.Decode(token)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestCodec_Decode_WrongSecret(t *testing.T) {
	c1 := NewCodec([]byte("k1"), time.Minute)
	c2 := NewCodec([]byte("k2"), time.Minute)

	token, _, err := c1.Encode("u1")
	require.NoError(t, err)

	_, err = c2.Decode(token)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestCodec_Decode_Malformed(t *testing.T) {
	c := NewCodec([]byte("k1"), time.Minute)

	for _, in := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := c.Decode(in)
		assert.ErrorIs(t, err, common.ErrMalformedCredential, "input %q", in)
		assert.False(t, errors.Is(err, common.ErrTokenExpired))
	}
}

func TestDecodeUnverified(t *testing.T) {
	c := NewCodec([]byte("k1"), 10*time.Minute)
	token, expiresAt, err := c.Encode("u7")
	require.NoError(t, err)

	claims, err := DecodeUnverified(token)
	require.NoError(t, err)
	assert.Equal(t, "u7", claims.UserID)
	assert.WithinDuration(t, expiresAt, claims.ExpiresAt.Time, time.Second)

	_, err = DecodeUnverified("not-a-jwt")
	assert.ErrorIs(t, err, common.ErrMalformedCredential)
}
