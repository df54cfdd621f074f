package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/builders-garden/squabble-engine/internal/modules/escrow/domain"
)

// seedGame creates a game and joins the given players
func seedGame(t *testing.T, e *testEngine, gameID, stake int64, players ...int64) {
	t.Helper()
	ctx := context.Background()
	e.fund(1000, players...)
	_, err := e.uc.CreateGame(ctx, 10, gameID, stake)
	require.NoError(t, err)
	for _, p := range players {
		require.NoError(t, e.uc.Join(ctx, p, gameID))
	}
}

func TestStart(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1, 2)

	// neither the creator nor an admin
	assert.ErrorIs(t, e.uc.Start(ctx, 5, 7), domain.ErrUnauthorized)

	require.NoError(t, e.uc.Start(ctx, 10, 7))

	g, _ := e.uc.GetGame(ctx, 7)
	assert.Equal(t, domain.StatusPlaying, g.Status)
	assert.Equal(t, domain.EventGameStarted, e.publisher.Last().Type)

	// restart is rejected, joins and withdrawals are closed
	assert.ErrorIs(t, e.uc.Start(ctx, 10, 7), domain.ErrGameNotPending)
	e.fund(1000, 3)
	assert.ErrorIs(t, e.uc.Join(ctx, 3, 7), domain.ErrGameNotPending)
	assert.ErrorIs(t, e.uc.Withdraw(ctx, 1, 7), domain.ErrGameNotPending)
}

func TestStartNotEnoughPlayers(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1)

	assert.ErrorIs(t, e.uc.Start(ctx, 10, 7), domain.ErrNotEnoughPlayers)

	// the admin may start someone else's game once it is viable
	e.fund(1000, 2)
	require.NoError(t, e.uc.Join(ctx, 2, 7))
	require.NoError(t, e.uc.Start(ctx, adminID, 7))
}

func TestResolveWinner(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1, 2, 3)
	require.NoError(t, e.uc.Start(ctx, 10, 7))

	require.NoError(t, e.uc.ResolveWinner(ctx, adminID, 7, 2))

	g, _ := e.uc.GetGame(ctx, 7)
	assert.Equal(t, domain.StatusEnded, g.Status)
	assert.Equal(t, domain.OutcomeWinner, g.Outcome)
	assert.Equal(t, int64(2), g.Winner)
	assert.Zero(t, g.TotalStaked)

	// winner takes the whole pool, the rest keep their loss
	b1, _ := e.wallet.Balance(ctx, 1)
	b2, _ := e.wallet.Balance(ctx, 2)
	b3, _ := e.wallet.Balance(ctx, 3)
	assert.Equal(t, int64(900), b1)
	assert.Equal(t, int64(1200), b2)
	assert.Equal(t, int64(900), b3)
	assert.Zero(t, e.wallet.CustodyBalance())

	event := e.publisher.Last()
	assert.Equal(t, domain.EventGameEnded, event.Type)
	assert.Equal(t, int64(2), event.Winner)
	assert.False(t, event.Draw)

	require.Len(t, e.settlements.records, 1)
	record := e.settlements.records[0]
	assert.Equal(t, "winner", record.Outcome)
	assert.Equal(t, int64(300), record.TotalPaid)
	require.Len(t, e.settlements.payouts, 1)
	assert.Equal(t, int64(300), e.settlements.payouts[0].Amount)
}

func TestResolveWinnerAuthorization(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1, 2)
	require.NoError(t, e.uc.Start(ctx, 10, 7))

	// even the creator may not resolve
	assert.ErrorIs(t, e.uc.ResolveWinner(ctx, 10, 7, 1), domain.ErrUnauthorized)
	assert.ErrorIs(t, e.uc.ResolveWinner(ctx, 1, 7, 1), domain.ErrUnauthorized)
}

func TestResolveWinnerNotPlaying(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1, 2)

	assert.ErrorIs(t, e.uc.ResolveWinner(ctx, adminID, 7, 1), domain.ErrGameNotPlaying)
}

func TestResolveWinnerNotParticipant(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1, 2)
	require.NoError(t, e.uc.Start(ctx, 10, 7))

	err := e.uc.ResolveWinner(ctx, adminID, 7, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidWinner)

	g, _ := e.uc.GetGame(ctx, 7)
	assert.Equal(t, domain.StatusPlaying, g.Status)
	assert.Equal(t, int64(200), g.TotalStaked)
}

func TestResolveDraw(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 9, 50, 1, 2)
	require.NoError(t, e.uc.Start(ctx, 10, 9))

	require.NoError(t, e.uc.ResolveDraw(ctx, adminID, 9))

	g, _ := e.uc.GetGame(ctx, 9)
	assert.Equal(t, domain.StatusEnded, g.Status)
	assert.Equal(t, domain.OutcomeDraw, g.Outcome)
	assert.Zero(t, g.Winner)
	assert.Zero(t, g.TotalStaked)

	// every participant got exactly their stake back
	b1, _ := e.wallet.Balance(ctx, 1)
	b2, _ := e.wallet.Balance(ctx, 2)
	assert.Equal(t, int64(1000), b1)
	assert.Equal(t, int64(1000), b2)
	assert.Zero(t, e.wallet.CustodyBalance())

	event := e.publisher.Last()
	assert.Equal(t, domain.EventGameEnded, event.Type)
	assert.True(t, event.Draw)

	require.Len(t, e.settlements.payouts, 2)
}

func TestResolveDrawRefundsAtomically(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 9, 50, 1, 2, 3)
	require.NoError(t, e.uc.Start(ctx, 10, 9))

	e.wallet.FailCredits(3)
	err := e.uc.ResolveDraw(ctx, adminID, 9)
	assert.ErrorIs(t, err, domain.ErrTransferFailed)

	// nobody was refunded, the game is still live
	g, _ := e.uc.GetGame(ctx, 9)
	assert.Equal(t, domain.StatusPlaying, g.Status)
	assert.Equal(t, int64(150), g.TotalStaked)
	assert.Equal(t, int64(150), e.wallet.CustodyBalance())
	b1, _ := e.wallet.Balance(ctx, 1)
	assert.Equal(t, int64(950), b1)

	// the same game settles once the ledger recovers
	e.wallet.ClearFailures()
	require.NoError(t, e.uc.ResolveDraw(ctx, adminID, 9))
	assert.Zero(t, e.wallet.CustodyBalance())
}

func TestResolveWinnerPayoutFailureKeepsGamePlaying(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1, 2)
	require.NoError(t, e.uc.Start(ctx, 10, 7))
	before := len(e.publisher.Events())

	e.wallet.FailCredits(2)
	err := e.uc.ResolveWinner(ctx, adminID, 7, 2)
	assert.ErrorIs(t, err, domain.ErrTransferFailed)

	g, _ := e.uc.GetGame(ctx, 7)
	assert.Equal(t, domain.StatusPlaying, g.Status)
	assert.Equal(t, int64(200), g.TotalStaked)
	assert.Equal(t, int64(200), e.wallet.CustodyBalance())
	assert.Len(t, e.publisher.Events(), before)
	assert.Empty(t, e.settlements.records)
}

func TestResolvePosition(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1, 2)
	require.NoError(t, e.uc.Start(ctx, 10, 7))

	require.NoError(t, e.uc.ResolvePosition(ctx, adminID, 7, 1))

	g, _ := e.uc.GetGame(ctx, 7)
	assert.Equal(t, int64(2), g.Winner)
	b2, _ := e.wallet.Balance(ctx, 2)
	assert.Equal(t, int64(1100), b2)
}

func TestResolvePositionOutOfRange(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1, 2)
	require.NoError(t, e.uc.Start(ctx, 10, 7))

	assert.ErrorIs(t, e.uc.ResolvePosition(ctx, adminID, 7, 2), domain.ErrInvalidWinner)
	assert.ErrorIs(t, e.uc.ResolvePosition(ctx, adminID, 7, -1), domain.ErrInvalidWinner)
}

func TestEndedGameIsTerminal(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1, 2)
	require.NoError(t, e.uc.Start(ctx, 10, 7))
	require.NoError(t, e.uc.ResolveWinner(ctx, adminID, 7, 1))

	assert.ErrorIs(t, e.uc.ResolveWinner(ctx, adminID, 7, 2), domain.ErrGameNotPlaying)
	assert.ErrorIs(t, e.uc.ResolveDraw(ctx, adminID, 7), domain.ErrGameNotPlaying)
	assert.ErrorIs(t, e.uc.Start(ctx, 10, 7), domain.ErrGameNotPending)
	assert.ErrorIs(t, e.uc.Cancel(ctx, 10, 7), domain.ErrGameNotPending)
	assert.ErrorIs(t, e.uc.Join(ctx, 1, 7), domain.ErrGameNotPending)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1, 2)

	assert.ErrorIs(t, e.uc.Cancel(ctx, 1, 7), domain.ErrUnauthorized)

	require.NoError(t, e.uc.Cancel(ctx, 10, 7))

	g, _ := e.uc.GetGame(ctx, 7)
	assert.Equal(t, domain.StatusEnded, g.Status)
	assert.Equal(t, domain.OutcomeCancelled, g.Outcome)
	assert.Zero(t, g.TotalStaked)

	b1, _ := e.wallet.Balance(ctx, 1)
	b2, _ := e.wallet.Balance(ctx, 2)
	assert.Equal(t, int64(1000), b1)
	assert.Equal(t, int64(1000), b2)
	assert.Zero(t, e.wallet.CustodyBalance())
	assert.Equal(t, domain.EventGameCancelled, e.publisher.Last().Type)
}

func TestCancelEmptyGame(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	_, err := e.uc.CreateGame(ctx, 10, 7, 100)
	require.NoError(t, err)

	require.NoError(t, e.uc.Cancel(ctx, 10, 7))
	g, _ := e.uc.GetGame(ctx, 7)
	assert.Equal(t, domain.StatusEnded, g.Status)
}

func TestCancelWhilePaused(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1, 2)

	require.NoError(t, e.uc.Pause(ctx, adminID))
	require.NoError(t, e.uc.Cancel(ctx, adminID, 7))
	assert.Zero(t, e.wallet.CustodyBalance())
}

func TestResolveWhilePaused(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1, 2)
	require.NoError(t, e.uc.Start(ctx, 10, 7))

	require.NoError(t, e.uc.Pause(ctx, adminID))
	require.NoError(t, e.uc.ResolveWinner(ctx, adminID, 7, 1))
}

func TestConservationAcrossLifecycles(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())

	seedGame(t, e, 1, 100, 1, 2, 3)
	seedGame(t, e, 2, 50, 4, 5)
	seedGame(t, e, 3, 200, 6, 7)

	assert.Equal(t, e.totalStaked(ctx), e.wallet.CustodyBalance())

	require.NoError(t, e.uc.Withdraw(ctx, 3, 1))
	assert.Equal(t, e.totalStaked(ctx), e.wallet.CustodyBalance())

	require.NoError(t, e.uc.Start(ctx, 10, 1))
	require.NoError(t, e.uc.ResolveWinner(ctx, adminID, 1, 2))
	assert.Equal(t, e.totalStaked(ctx), e.wallet.CustodyBalance())

	require.NoError(t, e.uc.Start(ctx, 10, 2))
	require.NoError(t, e.uc.ResolveDraw(ctx, adminID, 2))
	assert.Equal(t, e.totalStaked(ctx), e.wallet.CustodyBalance())

	require.NoError(t, e.uc.Cancel(ctx, 10, 3))
	assert.Equal(t, e.totalStaked(ctx), e.wallet.CustodyBalance())
	assert.Zero(t, e.wallet.CustodyBalance())
}

func TestReentrantResolveRejected(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1, 2)
	require.NoError(t, e.uc.Start(ctx, 10, 7))

	// a payout target that calls back into the engine mid-transfer
	var reentrant error
	hooked := false
	e.wallet.CreditHook = func(account, amount int64) {
		if hooked {
			return
		}
		hooked = true
		reentrant = e.uc.ResolveWinner(ctx, adminID, 7, 1)
	}

	require.NoError(t, e.uc.ResolveWinner(ctx, adminID, 7, 2))
	assert.ErrorIs(t, reentrant, domain.ErrReentrancy)

	// the outer settlement alone took effect
	g, _ := e.uc.GetGame(ctx, 7)
	assert.Equal(t, int64(2), g.Winner)
	assert.Zero(t, e.wallet.CustodyBalance())
}

func TestReentrantWithdrawRejected(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(testRules())
	seedGame(t, e, 7, 100, 1, 2)

	var reentrant error
	hooked := false
	e.wallet.CreditHook = func(account, amount int64) {
		if hooked {
			return
		}
		hooked = true
		reentrant = e.uc.Withdraw(ctx, 2, 7)
	}

	require.NoError(t, e.uc.Withdraw(ctx, 1, 7))
	assert.ErrorIs(t, reentrant, domain.ErrReentrancy)

	g, _ := e.uc.GetGame(ctx, 7)
	assert.Equal(t, []int64{2}, g.Players)
	assert.Equal(t, int64(100), g.TotalStaked)
	assert.Equal(t, int64(100), e.wallet.CustodyBalance())
}
