package session

import "github.com/dmitrijs2005/tamperscan/internal/client/models"

// Kind is the phase of a session.
type Kind int

const (
	// Loading is the state before Initialize has resolved.
	Loading Kind = iota
	Unauthenticated
	Authenticated
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is the client's belief about the current user. User is set only
// when Kind is Authenticated.
type State struct {
	Kind Kind
	User models.User
}

func (s State) IsAuthenticated() bool { return s.Kind == Authenticated }

func unauthenticated() State { return State{Kind: Unauthenticated} }
