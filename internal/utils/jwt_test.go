package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestNewAccessToken(t *testing.T) {
	t.Run("Round trip preserves subject and extras", func(t *testing.T) {
		at, err := NewAccessToken(testSecret, "42", time.Hour, map[string]any{
			"roles": []string{"admin", "analyst"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, at.Token)

		claims, err := DecodeAccessToken(testSecret, at.Token)
		require.NoError(t, err)
		assert.Equal(t, "42", claims.Subject)
		assert.WithinDuration(t, at.Exp, claims.Expiry, time.Second)
		assert.Contains(t, claims.Extra, "roles")
		assert.NotContains(t, claims.Extra, "sub")
	})

	t.Run("Extra claims cannot override mandatory claims", func(t *testing.T) {
		at, err := NewAccessToken(testSecret, "42", time.Hour, map[string]any{
			"sub": "999",
			"exp": time.Now().Add(-time.Hour).Unix(),
			"iat": int64(0),
		})
		require.NoError(t, err)

		claims, err := DecodeAccessToken(testSecret, at.Token)
		require.NoError(t, err)
		assert.Equal(t, "42", claims.Subject)
		assert.True(t, claims.Expiry.After(time.Now()))
		assert.Empty(t, claims.Extra)
	})

	t.Run("Identical inputs mint distinct tokens", func(t *testing.T) {
		first, err := NewAccessToken(testSecret, "42", time.Hour, map[string]any{"roles": []string{"admin"}})
		require.NoError(t, err)
		second, err := NewAccessToken(testSecret, "42", time.Hour, map[string]any{"roles": []string{"admin"}})
		require.NoError(t, err)

		// access_tokens.token carries a unique key; back-to-back logins in
		// the same second must not serialize to the same string.
		assert.NotEqual(t, first.Token, second.Token)
	})
}

func TestDecodeAccessToken(t *testing.T) {
	t.Run("Expired token is rejected", func(t *testing.T) {
		at, err := NewAccessToken(testSecret, "42", -time.Minute, nil)
		require.NoError(t, err)

		_, err = DecodeAccessToken(testSecret, at.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Wrong secret is rejected", func(t *testing.T) {
		at, err := NewAccessToken(testSecret, "42", time.Hour, nil)
		require.NoError(t, err)

		_, err = DecodeAccessToken("other-secret", at.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage input is rejected", func(t *testing.T) {
		_, err := DecodeAccessToken(testSecret, "not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Unsigned token is rejected", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "42",
			"iat": time.Now().Unix(),
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = DecodeAccessToken(testSecret, raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Missing subject is rejected", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"iat": time.Now().Unix(),
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		raw, err := tok.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = DecodeAccessToken(testSecret, raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Missing expiry is rejected", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "42",
			"iat": time.Now().Unix(),
		})
		raw, err := tok.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = DecodeAccessToken(testSecret, raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
