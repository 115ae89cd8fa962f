package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tamperscan/internal/client/client"
	"github.com/dmitrijs2005/tamperscan/internal/client/models"
	"github.com/dmitrijs2005/tamperscan/internal/common"
)

// Input indirections used to facilitate testing. They point to the
// interactive helpers and can be swapped in tests.
var (
	getSimpleText      = GetSimpleText
	getTextWithDefault = GetTextWithDefault
	getPassword        = GetPassword
	getSecret          = GetSecret
)

const (
	msgInvalidCredentials = "Invalid credentials."
	msgRegistrationFailed = "Registration failed."
	msgRegistered         = "Registered successfully. Please log in."
	msgUnavailable        = "Server unavailable, please try again later."
)

// Register prompts for a username, an email and a password and creates an
// account. It does not log in. The password byte slice is wiped before
// returning. Only I/O errors are returned; server refusals are printed.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	err = a.authService.Register(ctx, models.Registration{
		Username: userName,
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		a.log.Info(ctx, "registration rejected", "user", userName, "error", err)
		fmt.Fprintln(a.out, msgRegistrationFailed)
		if reason := serverMessage(err); reason != "" {
			fmt.Fprintln(a.out, reason)
		}
		return nil
	}

	fmt.Fprintln(a.out, msgRegistered)
	return nil
}

// Login prompts for credentials and starts a session. The last username is
// offered as the default. The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	userName, err := getTextWithDefault(a.reader, "Enter username", a.authService.LastUsername(ctx), a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	var user models.User
	err = a.withSpinner("Logging in...", func() error {
		var lerr error
		user, lerr = a.authService.Login(ctx, userName, password)
		return lerr
	})
	if err != nil {
		a.log.Info(ctx, "login unsuccessful", "user", userName, "error", err)
		if errors.Is(err, client.ErrUnavailable) {
			fmt.Fprintln(a.out, msgUnavailable)
		} else {
			fmt.Fprintln(a.out, msgInvalidCredentials)
		}
		return nil
	}

	fmt.Fprintf(a.out, "Welcome, %s!\n", user.Username)
	return nil
}

// Logout ends the session and removes the stored tokens.
func (a *App) Logout(ctx context.Context) error {
	a.loggingOut = true
	defer func() { a.loggingOut = false }()

	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// serverMessage returns the reason given by the server, if any.
func serverMessage(err error) string {
	var herr *client.HTTPError
	if errors.As(err, &herr) {
		return herr.Message
	}
	return ""
}
