package session

import "errors"

var (
	// ErrNoRefreshToken is returned by Refresh when nothing can be exchanged.
	ErrNoRefreshToken = errors.New("no refresh token")
	// ErrRefreshPending is returned by Refresh when the caller stopped waiting
	// before the exchange settled.
	ErrRefreshPending = errors.New("refresh still in progress")
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not authenticated")
)
