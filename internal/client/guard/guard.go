// Package guard decides whether a protected view may be shown.
package guard

import "github.com/dmitrijs2005/tamperscan/internal/client/session"

// LoginView is where unauthenticated users are sent.
const LoginView = "login"

type Action int

const (
	// Wait means the session is still loading; show a placeholder only.
	Wait Action = iota
	Allow
	Redirect
)

func (a Action) String() string {
	switch a {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the outcome of Check. To and From are set only for Redirect;
// From is the view the user tried to open.
type Decision struct {
	Action Action
	To     string
	From   string
}

// Check maps the session state to a navigation decision for attempted.
func Check(state session.State, attempted string) Decision {
	switch state.Kind {
	case session.Loading:
		return Decision{Action: Wait}
	case session.Authenticated:
		return Decision{Action: Allow}
	default:
		return Decision{Action: Redirect, To: LoginView, From: attempted}
	}
}
