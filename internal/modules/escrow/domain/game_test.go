package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGame(t *testing.T) {
	g := NewGame(7, 10, 100)

	assert.Equal(t, int64(7), g.ID)
	assert.Equal(t, int64(10), g.Creator)
	assert.Equal(t, int64(100), g.Stake)
	assert.Equal(t, StatusPending, g.Status)
	assert.Equal(t, OutcomeNone, g.Outcome)
	assert.Empty(t, g.Players)
	assert.Zero(t, g.TotalStaked)
	assert.False(t, g.CreatedAt.IsZero())
}

func TestAddPlayerGrowsStakedTotal(t *testing.T) {
	g := NewGame(7, 10, 100)

	g.AddPlayer(1)
	g.AddPlayer(2)

	assert.Equal(t, []int64{1, 2}, g.Players)
	assert.Equal(t, int64(200), g.TotalStaked)
	assert.True(t, g.HasPlayer(1))
	assert.False(t, g.HasPlayer(3))
}

func TestRemovePlayerPreservesOrder(t *testing.T) {
	g := NewGame(7, 10, 100)
	for _, p := range []int64{1, 2, 3, 4} {
		g.AddPlayer(p)
	}

	require.True(t, g.RemovePlayer(2))

	assert.Equal(t, []int64{1, 3, 4}, g.Players)
	assert.Equal(t, int64(300), g.TotalStaked)

	// unknown identity leaves the game untouched
	assert.False(t, g.RemovePlayer(2))
	assert.Equal(t, []int64{1, 3, 4}, g.Players)
	assert.Equal(t, int64(300), g.TotalStaked)
}

func TestPlayerAt(t *testing.T) {
	g := NewGame(7, 10, 100)
	g.AddPlayer(5)
	g.AddPlayer(6)

	p, ok := g.PlayerAt(0)
	require.True(t, ok)
	assert.Equal(t, int64(5), p)

	p, ok = g.PlayerAt(1)
	require.True(t, ok)
	assert.Equal(t, int64(6), p)

	_, ok = g.PlayerAt(2)
	assert.False(t, ok)
	_, ok = g.PlayerAt(-1)
	assert.False(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	g := NewGame(7, 10, 100)
	g.AddPlayer(1)

	c := g.Clone()
	c.AddPlayer(2)
	c.Status = StatusPlaying

	assert.Equal(t, []int64{1}, g.Players)
	assert.Equal(t, int64(100), g.TotalStaked)
	assert.Equal(t, StatusPending, g.Status)

	assert.Equal(t, []int64{1, 2}, c.Players)
	assert.Equal(t, int64(200), c.TotalStaked)
}

func TestStatusAndOutcomeStrings(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "playing", StatusPlaying.String())
	assert.Equal(t, "ended", StatusEnded.String())
	assert.Equal(t, "unknown", StatusUnknown.String())

	assert.Equal(t, "winner", OutcomeWinner.String())
	assert.Equal(t, "draw", OutcomeDraw.String())
	assert.Equal(t, "cancelled", OutcomeCancelled.String())
	assert.Equal(t, "none", OutcomeNone.String())
}
