package common

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	s1, err := MakeRandHexString(32)
	require.NoError(t, err)
	assert.Len(t, s1, 64)

	_, err = hex.DecodeString(s1)
	require.NoError(t, err)

	s2, err := MakeRandHexString(32)
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}

func TestHashTokenValue(t *testing.T) {
	h1 := HashTokenValue("tok123")
	h2 := HashTokenValue("tok123")
	h3 := HashTokenValue("tok124")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
	assert.NotContains(t, h1, "tok123")
}

func TestWipeByteArray(t *testing.T) {
	b := []byte("secret")
	WipeByteArray(b)
	for _, c := range b {
		assert.Zero(t, c)
	}
	WipeByteArray(nil) // must not panic
}
