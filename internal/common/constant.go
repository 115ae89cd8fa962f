// Package common contains shared constants, sentinel errors and small helpers
// used across tamperscan components.
package common

const (
	// AccessTokenKey and RefreshTokenKey name the two persisted session entries.
	AccessTokenKey  = "access"
	RefreshTokenKey = "refresh"

	// AuthorizationHeaderName carries the bearer credential on outbound requests.
	AuthorizationHeaderName = "Authorization"
	BearerScheme            = "Bearer"

	// RequestIDHeaderName tags every outbound attempt with a fresh id.
	RequestIDHeaderName = "X-Request-ID"

	// MaxUploadSize is the largest document accepted for analysis (5 MiB).
	MaxUploadSize = 5 * 1024 * 1024
)
