package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/builders-garden/squabble-engine/internal/modules/escrow/domain"
)

func TestGuard(t *testing.T) {
	g := NewGuard([]int64{99, 100})

	assert.True(t, g.IsAdministrator(99))
	assert.True(t, g.IsAdministrator(100))
	assert.False(t, g.IsAdministrator(1))
	assert.False(t, g.IsAdministrator(0))

	game := domain.NewGame(7, 10, 100)
	assert.True(t, g.IsCreator(game, 10))
	assert.False(t, g.IsCreator(game, 11))
	assert.False(t, g.IsCreator(nil, 10))
}

func TestGuardPause(t *testing.T) {
	g := NewGuard(nil)

	assert.False(t, g.Paused())
	g.SetPaused(true)
	assert.True(t, g.Paused())
	g.SetPaused(false)
	assert.False(t, g.Paused())
}

func TestTokenRoundTrip(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)

	token, expiresAt, err := codec.Mint(42)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	account, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), account)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenCodec("secret-a", time.Hour).Mint(42)
	require.NoError(t, err)

	_, err = NewTokenCodec("secret-b", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestTokenRejectsExpired(t *testing.T) {
	codec := NewTokenCodec("test-secret", -time.Minute)

	token, _, err := codec.Mint(42)
	require.NoError(t, err)

	_, err = codec.Parse(token)
	assert.Error(t, err)
}

func TestTokenRejectsGarbage(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)

	_, err := codec.Parse("not-a-token")
	assert.Error(t, err)
	_, err = codec.Parse("")
	assert.Error(t, err)
}
