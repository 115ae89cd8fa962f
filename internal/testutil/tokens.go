// Package testutil contains test doubles shared by package tests: a token
// minter compatible with the backend's JWT layout and an in-process fake of
// the detection backend.
package testutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Secret signs every token minted here. Clients never verify it.
var Secret = []byte("tamperscan-test-secret")

// Claims mirrors the payload issued by the backend.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	UserID    any    `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
}

func mint(c Claims) string {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(Secret)
	if err != nil {
		panic(err)
	}
	return s
}

// AccessToken returns a signed access token for userID/username expiring at exp.
// userID may be an int (as the backend sends it) or a string.
func AccessToken(userID any, username string, exp time.Time) string {
	return mint(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
		TokenType: "access",
		UserID:    userID,
		Username:  username,
	})
}

// RefreshToken returns a signed refresh token for userID.
func RefreshToken(userID any, exp time.Time) string {
	return mint(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		TokenType: "refresh",
		UserID:    userID,
	})
}

// Raw signs arbitrary claims, for malformed-payload cases.
func Raw(claims jwt.MapClaims) string {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(Secret)
	if err != nil {
		panic(err)
	}
	return s
}
