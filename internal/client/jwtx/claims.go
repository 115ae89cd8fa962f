// Package jwtx reads the claims of session tokens on the client side.
//
// Signatures are NOT verified: the backend is the only party holding the key.
// Decoded claims are used to show who is logged in and to decide whether the
// access token needs refreshing before it is sent. They are not a security
// boundary.
package jwtx

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when a token cannot be parsed or lacks a
// required claim (user_id, username, exp).
var ErrMalformedToken = errors.New("malformed token")

// Claims are the identity and expiry embedded in an access token.
type Claims struct {
	UserID    string
	Username  string
	ExpiresAt time.Time
}

var parser = jwt.NewParser()

// Decode extracts Claims from token without verifying its signature.
func Decode(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	exp, err := mc.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if exp == nil {
		return Claims{}, fmt.Errorf("%w: missing exp", ErrMalformedToken)
	}

	userID, err := stringClaim(mc, "user_id")
	if err != nil {
		return Claims{}, err
	}
	username, err := stringClaim(mc, "username")
	if err != nil {
		return Claims{}, err
	}

	return Claims{UserID: userID, Username: username, ExpiresAt: exp.Time}, nil
}

// IsExpired reports whether now is at or past the expiry of c.
func IsExpired(c Claims, now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// stringClaim reads a required claim that may be encoded as a JSON string or number.
func stringClaim(mc jwt.MapClaims, name string) (string, error) {
	raw, ok := mc[name]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedToken, name)
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("%w: empty %s", ErrMalformedToken, name)
		}
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: %s has unexpected type %T", ErrMalformedToken, name, raw)
	}
}
