package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/tamperscan/internal/client/client"
	"github.com/dmitrijs2005/tamperscan/internal/client/models"
	"github.com/dmitrijs2005/tamperscan/internal/client/session"
	"github.com/dmitrijs2005/tamperscan/internal/client/tokens"
	"github.com/dmitrijs2005/tamperscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// ---- fake client ----

type fakeAuthAPI struct {
	LoginRet    models.TokenPair
	LoginErr    error
	RegisterErr error

	LastCreds models.Credentials
	LastReg   models.Registration
}

func (f *fakeAuthAPI) Login(_ context.Context, creds models.Credentials) (models.TokenPair, error) {
	f.LastCreds = creds
	return f.LoginRet, f.LoginErr
}

func (f *fakeAuthAPI) Register(_ context.Context, reg models.Registration) error {
	f.LastReg = reg
	return f.RegisterErr
}

func newAuth(t *testing.T, api AuthAPI) (AuthService, *session.Controller) {
	t.Helper()
	db := setupDB(t)
	ctrl := session.NewController(tokens.NewSQLiteStore(db), nil)
	return NewAuthService(api, ctrl, db), ctrl
}

// ---- tests ----

func TestLogin_StartsSessionAndRemembersUser(t *testing.T) {
	pair := models.TokenPair{
		Access:  testutil.AccessToken(5, "dora", time.Now().Add(time.Minute)),
		Refresh: testutil.RefreshToken(5, time.Now().Add(time.Hour)),
	}
	api := &fakeAuthAPI{LoginRet: pair}
	svc, ctrl := newAuth(t, api)
	ctx := context.Background()

	assert.Empty(t, svc.LastUsername(ctx))

	u, err := svc.Login(ctx, "dora", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, models.User{ID: "5", Username: "dora"}, u)
	assert.Equal(t, models.Credentials{Username: "dora", Password: "pw"}, api.LastCreds)
	assert.Equal(t, session.Authenticated, ctrl.State().Kind)
	assert.Equal(t, "dora", svc.LastUsername(ctx))
	current, err := svc.User()
	require.NoError(t, err)
	assert.Equal(t, u, current)

	// the stored pair is enough to restore the session
	require.Equal(t, session.Authenticated, svc.Initialize(ctx).Kind)
}

func TestLogin_ErrorWrapped(t *testing.T) {
	api := &fakeAuthAPI{LoginErr: client.ErrUnauthorized}
	svc, ctrl := newAuth(t, api)

	_, err := svc.Login(context.Background(), "dora", []byte("bad"))
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Contains(t, err.Error(), "login")
	assert.NotEqual(t, session.Authenticated, ctrl.State().Kind)
	assert.Empty(t, svc.LastUsername(context.Background()))
}

func TestLogin_MalformedPair(t *testing.T) {
	api := &fakeAuthAPI{LoginRet: models.TokenPair{Access: "junk", Refresh: "junk"}}
	svc, ctrl := newAuth(t, api)

	_, err := svc.Login(context.Background(), "dora", []byte("pw"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start session")
	assert.Equal(t, session.Unauthenticated, ctrl.State().Kind)
}

func TestRegister_DelegatesToClient(t *testing.T) {
	api := &fakeAuthAPI{}
	svc, ctrl := newAuth(t, api)
	reg := models.Registration{Username: "eve", Email: "eve@example.com", Password: "pw"}

	require.NoError(t, svc.Register(context.Background(), reg))
	assert.Equal(t, reg, api.LastReg)
	// registering does not log in
	assert.Equal(t, session.Loading, ctrl.State().Kind)
}

func TestRegister_ErrorFromClient(t *testing.T) {
	api := &fakeAuthAPI{RegisterErr: errors.New("boom")}
	svc, _ := newAuth(t, api)

	err := svc.Register(context.Background(), models.Registration{Username: "eve"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register: boom")
}

func TestLogout_KeepsLastUsername(t *testing.T) {
	api := &fakeAuthAPI{LoginRet: models.TokenPair{
		Access:  testutil.AccessToken(5, "dora", time.Now().Add(time.Minute)),
		Refresh: "R",
	}}
	svc, ctrl := newAuth(t, api)
	ctx := context.Background()

	_, err := svc.Login(ctx, "dora", []byte("pw"))
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))
	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, session.Unauthenticated, ctrl.State().Kind)
	assert.Equal(t, session.Unauthenticated, svc.State().Kind)
	assert.Equal(t, "dora", svc.LastUsername(ctx))
	_, err = svc.User()
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	assert.Equal(t, session.Unauthenticated, svc.Initialize(ctx).Kind)
}
