// Package tokens persists the session token pair between runs of the client.
//
// Stores only hold values; they never decode or validate tokens.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/tamperscan/internal/client/models"
)

// Store is the durable holder of the access/refresh pair.
//
// Get reports ok=false when no access token is stored. A pair with an access
// token but no refresh token is returned with ok=true and an empty Refresh.
type Store interface {
	Save(ctx context.Context, pair models.TokenPair) error
	SaveAccess(ctx context.Context, access string) error
	Get(ctx context.Context) (pair models.TokenPair, ok bool, err error)
	Clear(ctx context.Context) error
}
