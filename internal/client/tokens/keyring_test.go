package tokens

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/tamperscan/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringStore_Lifecycle(t *testing.T) {
	keyring.MockInit()
	s := NewKeyringStore("")
	ctx := context.Background()

	_, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, models.TokenPair{Access: "A1", Refresh: "R1"}))
	require.NoError(t, s.SaveAccess(ctx, "A2"))

	pair, ok, err := s.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.TokenPair{Access: "A2", Refresh: "R1"}, pair)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx), "clearing an empty keychain is not an error")

	pair, ok, err = s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, models.TokenPair{}, pair)
}

func TestKeyringStore_ServicesAreIsolated(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()

	a := NewKeyringStore("tamperscan-a")
	b := NewKeyringStore("tamperscan-b")

	require.NoError(t, a.Save(ctx, models.TokenPair{Access: "A", Refresh: "R"}))

	_, ok, err := b.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeyringStore_BackendFailure(t *testing.T) {
	boom := errors.New("keychain locked")
	keyring.MockInitWithError(boom)
	s := NewKeyringStore("")

	err := s.Save(context.Background(), models.TokenPair{Access: "A"})
	require.ErrorIs(t, err, boom)

	_, _, err = s.Get(context.Background())
	require.ErrorIs(t, err, boom)

	require.ErrorIs(t, s.Clear(context.Background()), boom)
}
