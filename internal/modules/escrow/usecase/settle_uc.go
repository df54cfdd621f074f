package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/builders-garden/squabble-engine/internal/modules/escrow/domain"
	"github.com/builders-garden/squabble-engine/pkg/logger"
	"github.com/builders-garden/squabble-engine/pkg/service"
)

// Start transitions a pending game to playing. Caller must be the creator or
// an administrator. No funds move.
func (uc *EscrowUseCase) Start(ctx context.Context, caller, gameID int64) error {
	ctx = logger.WithFields(ctx, map[string]interface{}{"caller": caller, "game_id": gameID})

	if caller <= 0 {
		return domain.ErrInvalidIdentity
	}
	if uc.guard.Paused() {
		return domain.ErrPaused
	}
	if err := uc.enter(gameID); err != nil {
		return err
	}
	defer uc.leave(gameID)

	g, err := uc.games.Get(ctx, gameID)
	if err != nil {
		return fmt.Errorf("start game %d: %w", gameID, err)
	}
	if !uc.guard.IsCreator(g, caller) && !uc.guard.IsAdministrator(caller) {
		return fmt.Errorf("%w: only the creator or an administrator may start game %d", domain.ErrUnauthorized, gameID)
	}
	if g.Status != domain.StatusPending {
		return fmt.Errorf("%w: game %d is %s", domain.ErrGameNotPending, gameID, g.Status)
	}
	if len(g.Players) < uc.rules.MinPlayers {
		return fmt.Errorf("%w: game %d has %d of %d", domain.ErrNotEnoughPlayers, gameID, len(g.Players), uc.rules.MinPlayers)
	}

	g.Status = domain.StatusPlaying
	if err := uc.games.Save(ctx, g); err != nil {
		return fmt.Errorf("failed to start game %d: %w", gameID, err)
	}

	logger.Info(ctx).Int("players", len(g.Players)).Msg("game started")
	uc.publish(ctx, domain.NewGameEvent(domain.EventGameStarted, g))
	return nil
}

// ResolveWinner settles a playing game by paying the whole pool to one
// participant. Administrator-only and all-or-nothing: a failed payout leaves
// the game playing and custody untouched.
func (uc *EscrowUseCase) ResolveWinner(ctx context.Context, caller, gameID, winner int64) error {
	return uc.resolve(ctx, caller, gameID, winner, false)
}

// ResolveDraw settles a playing game by refunding every participant their
// stake. The refund batch is atomic: it never pays some participants and
// skips others.
func (uc *EscrowUseCase) ResolveDraw(ctx context.Context, caller, gameID int64) error {
	return uc.resolve(ctx, caller, gameID, 0, true)
}

// ResolvePosition settles with the winner selected by position in the
// participant list. Position 0 and 1 cover the historical head-to-head
// player-one/player-two outcomes; any index works for larger games.
func (uc *EscrowUseCase) ResolvePosition(ctx context.Context, caller, gameID int64, position int) error {
	if err := uc.enter(gameID); err != nil {
		return err
	}
	g, err := uc.games.Get(ctx, gameID)
	uc.leave(gameID)
	if err != nil {
		return fmt.Errorf("resolve game %d: %w", gameID, err)
	}

	winner, ok := g.PlayerAt(position)
	if !ok {
		return fmt.Errorf("%w: position %d out of %d", domain.ErrInvalidWinner, position, len(g.Players))
	}
	return uc.resolve(ctx, caller, gameID, winner, false)
}

// Cancel ends a still-pending game. Creator or administrator only. Joined
// stakes are refunded atomically, so an ended game never strands custody.
func (uc *EscrowUseCase) Cancel(ctx context.Context, caller, gameID int64) error {
	ctx = logger.WithFields(ctx, map[string]interface{}{"caller": caller, "game_id": gameID})

	if caller <= 0 {
		return domain.ErrInvalidIdentity
	}
	// An exit path like withdrawal: not pause-gated.
	if err := uc.enter(gameID); err != nil {
		return err
	}
	defer uc.leave(gameID)

	g, err := uc.games.Get(ctx, gameID)
	if err != nil {
		return fmt.Errorf("cancel game %d: %w", gameID, err)
	}
	if !uc.guard.IsCreator(g, caller) && !uc.guard.IsAdministrator(caller) {
		return fmt.Errorf("%w: only the creator or an administrator may cancel game %d", domain.ErrUnauthorized, gameID)
	}
	if g.Status != domain.StatusPending {
		return fmt.Errorf("%w: game %d is %s", domain.ErrGameNotPending, gameID, g.Status)
	}

	refunds := stakeRefunds(g)
	if len(refunds) > 0 {
		if err := uc.wallet.CreditBatch(ctx, refunds, fmt.Sprintf("cancel:%d", gameID)); err != nil {
			logger.Warn(ctx).Err(err).Msg("cancellation refunds failed, game stays pending")
			return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
		}
	}

	g.Status = domain.StatusEnded
	g.Outcome = domain.OutcomeCancelled
	g.TotalStaked = 0
	if err := uc.games.Save(ctx, g); err != nil {
		return fmt.Errorf("failed to record cancellation of game %d: %w", gameID, err)
	}

	logger.Info(ctx).Int("refunded_players", len(refunds)).Msg("game cancelled")

	uc.writeHistory(ctx, g, refunds)
	uc.publish(ctx, domain.NewGameEvent(domain.EventGameCancelled, g))
	return nil
}

// resolve is the shared terminal transition for winner and draw outcomes
func (uc *EscrowUseCase) resolve(ctx context.Context, caller, gameID, winner int64, draw bool) error {
	ctx = logger.WithFields(ctx, map[string]interface{}{"caller": caller, "game_id": gameID})

	if caller <= 0 {
		return domain.ErrInvalidIdentity
	}
	// Resolution is never pause-gated: games in flight can always settle.
	if !uc.guard.IsAdministrator(caller) {
		return fmt.Errorf("%w: resolution is administrator-only", domain.ErrUnauthorized)
	}
	if err := uc.enter(gameID); err != nil {
		return err
	}
	defer uc.leave(gameID)

	g, err := uc.games.Get(ctx, gameID)
	if err != nil {
		return fmt.Errorf("resolve game %d: %w", gameID, err)
	}
	if g.Status != domain.StatusPlaying {
		return fmt.Errorf("%w: game %d is %s", domain.ErrGameNotPlaying, gameID, g.Status)
	}

	var payouts []service.Credit
	if draw {
		payouts = stakeRefunds(g)
		if err := uc.wallet.CreditBatch(ctx, payouts, fmt.Sprintf("draw:%d", gameID)); err != nil {
			logger.Warn(ctx).Err(err).Msg("draw refunds failed, game stays playing")
			return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
		}
		g.Outcome = domain.OutcomeDraw
	} else {
		if !g.HasPlayer(winner) {
			return fmt.Errorf("%w: identity %d in game %d", domain.ErrInvalidWinner, winner, gameID)
		}
		payouts = []service.Credit{{Account: winner, Amount: g.TotalStaked}}
		if _, err := uc.wallet.Credit(ctx, winner, g.TotalStaked, fmt.Sprintf("win:%d", gameID)); err != nil {
			logger.Warn(ctx).Err(err).Int64("winner", winner).Msg("winner payout failed, game stays playing")
			return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
		}
		g.Outcome = domain.OutcomeWinner
		g.Winner = winner
	}

	g.Status = domain.StatusEnded
	g.TotalStaked = 0
	if err := uc.games.Save(ctx, g); err != nil {
		return fmt.Errorf("failed to record resolution of game %d: %w", gameID, err)
	}

	logger.Info(ctx).
		Str("outcome", g.Outcome.String()).
		Int64("winner", g.Winner).
		Int("payouts", len(payouts)).
		Msg("game resolved")

	uc.writeHistory(ctx, g, payouts)

	event := domain.NewGameEvent(domain.EventGameEnded, g)
	event.Winner = g.Winner
	event.Draw = draw
	uc.publish(ctx, event)
	return nil
}

// stakeRefunds builds one stake-sized credit per participant, in join order
func stakeRefunds(g *domain.Game) []service.Credit {
	credits := make([]service.Credit, 0, len(g.Players))
	for _, p := range g.Players {
		credits = append(credits, service.Credit{Account: p, Amount: g.Stake})
	}
	return credits
}

// writeHistory persists the settlement record and payout orders. Funds have
// already moved, so failures are logged and never propagated.
func (uc *EscrowUseCase) writeHistory(ctx context.Context, g *domain.Game, payouts []service.Credit) {
	if uc.settlements == nil {
		return
	}

	now := time.Now()
	var totalPaid int64
	orders := make([]*domain.PayoutOrder, 0, len(payouts))
	for _, p := range payouts {
		totalPaid += p.Amount
		orders = append(orders, &domain.PayoutOrder{
			OrderID:   domain.NewEventID(),
			GameID:    g.ID,
			Account:   p.Account,
			Amount:    p.Amount,
			CreatedAt: now,
		})
	}

	record := &domain.SettlementRecord{
		GameID:       g.ID,
		Creator:      g.Creator,
		Stake:        g.Stake,
		Outcome:      g.Outcome.String(),
		Winner:       g.Winner,
		TotalPlayers: len(g.Players),
		TotalPaid:    totalPaid,
		EndedAt:      now,
	}
	if err := uc.settlements.Create(ctx, record); err != nil {
		logger.Error(ctx).Err(err).Int64("game_id", g.ID).Msg("failed to persist settlement record")
		return
	}
	if err := uc.settlements.BatchCreatePayouts(ctx, orders); err != nil {
		logger.Error(ctx).Err(err).Int64("game_id", g.ID).Msg("failed to persist payout orders")
	}
}
