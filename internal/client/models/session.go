// Package models defines the data exchanged with the detection backend and
// the session values kept by the client.
package models

// Credentials are submitted once to the login endpoint and never stored.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the body of the register endpoint.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is the persisted session. Access is short-lived, Refresh long-lived.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// User is the identity decoded from the access token.
type User struct {
	ID       string
	Username string
}
