// Package services contains application services for the tamperscan client.
// This file defines the authentication service: login, registration, logout,
// session restore and the remembered username used to prefill prompts.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tamperscan/internal/client/models"
	"github.com/dmitrijs2005/tamperscan/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/tamperscan/internal/client/session"
)

// lastUsernameKey names the metadata entry holding the last logged-in user.
const lastUsernameKey = "last_username"

// AuthAPI is the part of the backend client used for authentication.
type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (models.TokenPair, error)
	Register(ctx context.Context, reg models.Registration) error
}

// Session is the part of the session controller driven by AuthService.
type Session interface {
	Initialize(ctx context.Context) session.State
	Login(ctx context.Context, pair models.TokenPair) error
	Logout(ctx context.Context) error
	State() session.State
	User() (models.User, error)
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Initialize: restore the session persisted by a previous run.
//   - Login: exchange credentials for tokens and start a session.
//   - Register: create an account on the server; does not log in.
//   - Logout: end the session and drop the stored tokens.
//   - User: the logged-in identity, or session.ErrNotAuthenticated.
//   - LastUsername: the user of the last successful login, or "".
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Initialize(ctx context.Context) session.State
	Login(ctx context.Context, username string, password []byte) (models.User, error)
	Register(ctx context.Context, reg models.Registration) error
	Logout(ctx context.Context) error
	State() session.State
	User() (models.User, error)
	LastUsername(ctx context.Context) string
}

type authService struct {
	api     AuthAPI
	session Session
	db      *sql.DB
}

// NewAuthService constructs an AuthService bound to the API client, the
// session controller and the local DB.
func NewAuthService(api AuthAPI, s Session, db *sql.DB) AuthService {
	return &authService{api: api, session: s, db: db}
}

func (a *authService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

func (a *authService) Initialize(ctx context.Context) session.State {
	return a.session.Initialize(ctx)
}

func (a *authService) State() session.State {
	return a.session.State()
}

// Login authenticates against the server and hands the issued pair to the
// session. The username is remembered for the next prompt.
func (a *authService) User() (models.User, error) {
	return a.session.User()
}

func (a *authService) Login(ctx context.Context, username string, password []byte) (models.User, error) {
	pair, err := a.api.Login(ctx, models.Credentials{Username: username, Password: string(password)})
	if err != nil {
		return models.User{}, fmt.Errorf("login: %w", err)
	}

	if err := a.session.Login(ctx, pair); err != nil {
		return models.User{}, fmt.Errorf("start session: %w", err)
	}

	// not fatal: only used to prefill the prompt
	_ = a.getMetadataRepo().Set(ctx, lastUsernameKey, username)

	return a.session.State().User, nil
}

// Register creates a new account on the server.
func (a *authService) Register(ctx context.Context, reg models.Registration) error {
	if err := a.api.Register(ctx, reg); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// Logout ends the session. The remembered username is kept.
func (a *authService) Logout(ctx context.Context) error {
	return a.session.Logout(ctx)
}

func (a *authService) LastUsername(ctx context.Context) string {
	name, err := a.getMetadataRepo().Get(ctx, lastUsernameKey)
	if err != nil {
		return ""
	}
	return name
}
