// Package session owns the client's authentication state.
//
// A Controller is the single place where the token pair is written and where
// the state moves between Loading, Unauthenticated and Authenticated. Other
// components read the state through State or Subscribe and never mutate it.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/tamperscan/internal/client/jwtx"
	"github.com/dmitrijs2005/tamperscan/internal/client/models"
	"github.com/dmitrijs2005/tamperscan/internal/client/tokens"
	"github.com/dmitrijs2005/tamperscan/internal/logging"
	"golang.org/x/sync/singleflight"
)

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	RefreshToken(ctx context.Context, refresh string) (string, error)
}

type Controller struct {
	store     tokens.Store
	refresher Refresher
	log       logging.Logger
	now       func() time.Time

	mu        sync.Mutex
	state     State
	observers map[int]func(State)
	nextObs   int

	refreshes singleflight.Group
}

type Option func(*Controller)

func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController returns a controller in the Loading state.
func NewController(store tokens.Store, refresher Refresher, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		refresher: refresher,
		log:       logging.Discard(),
		now:       time.Now,
		state:     State{Kind: Loading},
		observers: map[int]func(State){},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to be called after every state change. The returned
// func removes it.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Controller) set(ctx context.Context, s State) {
	c.swap(ctx, s, nil)
}

// swap installs s and notifies observers. A non-nil when must accept the
// current state for the change to happen.
func (c *Controller) swap(ctx context.Context, s State, when func(State) bool) {
	c.mu.Lock()
	prev := c.state
	if when != nil && !when(prev) {
		c.mu.Unlock()
		return
	}
	c.state = s
	fns := make([]func(State), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	if prev == s {
		return
	}
	c.log.Debug(ctx, "session state changed", "from", prev.Kind.String(), "to", s.Kind.String(), "user", s.User.Username)
	for _, fn := range fns {
		fn(s)
	}
}

func (c *Controller) authenticate(ctx context.Context, claims jwtx.Claims) {
	c.set(ctx, State{
		Kind: Authenticated,
		User: models.User{ID: claims.UserID, Username: claims.Username},
	})
}

// Initialize resolves the Loading state from the stored tokens. It returns
// the resolved state, which is never Loading.
//
// Without a stored access token no network call is made. An expired access
// token is refreshed before the session is trusted. A token that cannot be
// decoded ends the session.
func (c *Controller) Initialize(ctx context.Context) State {
	pair, ok, err := c.store.Get(ctx)
	if err != nil {
		c.log.Error(ctx, "failed to read stored tokens", "error", err)
		c.set(ctx, unauthenticated())
		return c.State()
	}
	if !ok {
		c.set(ctx, unauthenticated())
		return c.State()
	}

	claims, err := jwtx.Decode(pair.Access)
	if err != nil {
		c.log.Warn(ctx, "stored access token is unreadable, logging out", "error", err)
		_ = c.Logout(ctx)
		return c.State()
	}

	if jwtx.IsExpired(claims, c.now()) {
		c.log.Info(ctx, "stored access token expired, refreshing", "user", claims.Username)
		if err := c.Refresh(ctx); err != nil {
			c.log.Info(ctx, "session could not be restored", "error", err)
		}
		// After an abandoned wait the exchange is still running and moves
		// the state again once it settles.
		c.swap(ctx, unauthenticated(), func(cur State) bool { return cur.Kind == Loading })
		return c.State()
	}

	c.authenticate(ctx, claims)
	return c.State()
}

// Refresh trades the stored refresh token for a new access token.
//
// Concurrent calls share one exchange with the backend and all observe its
// result. Any failure other than a missing refresh token ends the session.
// The exchange is detached from ctx: when ctx ends first Refresh returns
// ErrRefreshPending and the session is left to the exchange.
func (c *Controller) Refresh(ctx context.Context) error {
	detached := context.WithoutCancel(ctx)
	ch := c.refreshes.DoChan("refresh", func() (any, error) {
		return nil, c.refresh(detached)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.log.Debug(ctx, "joined in-flight refresh")
		}
		return res.Err
	case <-ctx.Done():
		c.log.Debug(ctx, "stopped waiting for refresh", "error", ctx.Err())
		return fmt.Errorf("%w: %w", ErrRefreshPending, ctx.Err())
	}
}

func (c *Controller) refresh(ctx context.Context) error {
	pair, _, err := c.store.Get(ctx)
	if err != nil {
		_ = c.Logout(ctx)
		return fmt.Errorf("read stored tokens: %w", err)
	}
	if pair.Refresh == "" {
		c.set(ctx, unauthenticated())
		return ErrNoRefreshToken
	}

	access, err := c.refresher.RefreshToken(ctx, pair.Refresh)
	if err != nil {
		c.log.Warn(ctx, "token refresh rejected, logging out", "error", err)
		_ = c.Logout(ctx)
		return fmt.Errorf("refresh session: %w", err)
	}

	claims, err := jwtx.Decode(access)
	if err != nil {
		_ = c.Logout(ctx)
		return fmt.Errorf("refreshed access token: %w", err)
	}

	if err := c.store.SaveAccess(ctx, access); err != nil {
		_ = c.Logout(ctx)
		return fmt.Errorf("store access token: %w", err)
	}

	c.log.Info(ctx, "session refreshed", "user", claims.Username)
	c.authenticate(ctx, claims)
	return nil
}

// Login stores a freshly issued pair and authenticates its user.
func (c *Controller) Login(ctx context.Context, pair models.TokenPair) error {
	claims, err := jwtx.Decode(pair.Access)
	if err != nil {
		_ = c.Logout(ctx)
		return err
	}

	if err := c.store.Save(ctx, pair); err != nil {
		return fmt.Errorf("store tokens: %w", err)
	}

	c.log.Info(ctx, "logged in", "user", claims.Username)
	c.authenticate(ctx, claims)
	return nil
}

// Logout clears the stored tokens and the identity. Calling it again is harmless.
// The store is cleared even when ctx is already done.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.store.Clear(context.WithoutCancel(ctx))
	c.set(ctx, unauthenticated())
	if err != nil {
		c.log.Error(ctx, "failed to clear stored tokens", "error", err)
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// AccessToken returns the stored access token, or "" when there is none.
func (c *Controller) AccessToken(ctx context.Context) (string, error) {
	pair, ok, err := c.store.Get(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return pair.Access, nil
}

// User returns the authenticated identity or ErrNotAuthenticated.
func (c *Controller) User() (models.User, error) {
	s := c.State()
	if !s.IsAuthenticated() {
		return models.User{}, ErrNotAuthenticated
	}
	return s.User, nil
}
