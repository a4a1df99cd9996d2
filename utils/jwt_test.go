package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/matryer/is"
	"github.com/xtayzy/uniCrew/config"
	"github.com/xtayzy/uniCrew/models"
)

func withSecret(t *testing.T, secret string) {
	t.Helper()
	prev := config.AppConfig.JWTSecret
	config.AppConfig.JWTSecret = secret
	t.Cleanup(func() { config.AppConfig.JWTSecret = prev })
}

func TestTokenPair(t *testing.T) {
	is := is.New(t)
	withSecret(t, "test-secret")
	user := &models.User{ID: 42, TokenVersion: 3}

	access, refresh, err := GenerateJWTToken(user)
	is.NoErr(err)

	claims, err := ParseAccessToken(access)
	is.NoErr(err)
	is.Equal(claims.UserID, uint(42))
	is.Equal(claims.TokenVersion, 3)

	claims, err = ParseRefreshToken(refresh)
	is.NoErr(err)
	is.Equal(claims.UserID, uint(42))

	_, err = ParseAccessToken(refresh)
	is.True(err != nil)
	_, err = ParseRefreshToken(access)
	is.True(err != nil)
}

func TestTokenRejectedWithOtherSecret(t *testing.T) {
	is := is.New(t)
	withSecret(t, "one")
	access, _, err := GenerateJWTToken(&models.User{ID: 1})
	is.NoErr(err)

	config.AppConfig.JWTSecret = "two"
	_, err = ParseAccessToken(access)
	is.True(err != nil)
}

func TestExpiredTokenRejected(t *testing.T) {
	is := is.New(t)
	withSecret(t, "test-secret")

	past := time.Now().Add(-time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:    1,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(past),
		},
	})
	signed, err := token.SignedString([]byte("test-secret"))
	is.NoErr(err)

	_, err = ParseAccessToken(signed)
	is.True(err != nil)
}
