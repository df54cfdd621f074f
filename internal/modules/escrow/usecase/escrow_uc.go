// Package usecase implements the game lifecycle state machine and the
// fund-conservation logic of the escrow engine.
package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/builders-garden/squabble-engine/internal/config"
	"github.com/builders-garden/squabble-engine/internal/modules/access"
	"github.com/builders-garden/squabble-engine/internal/modules/escrow/domain"
	"github.com/builders-garden/squabble-engine/pkg/logger"
	"github.com/builders-garden/squabble-engine/pkg/service"
)

// EscrowUseCase is the settlement engine. All mutating operations take an
// explicit authenticated caller, validate against the access guard, mutate a
// clone of the game, perform wallet transfers, and only then commit — so a
// failing step leaves state and funds exactly where they were.
type EscrowUseCase struct {
	games       domain.GameRepository
	wallet      service.WalletService
	guard       *access.Guard
	publisher   domain.EventPublisher
	settlements domain.SettlementRepository
	rules       config.GameRules

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// NewEscrowUseCase creates a new escrow use case. publisher and settlements
// may be nil.
func NewEscrowUseCase(
	games domain.GameRepository,
	wallet service.WalletService,
	guard *access.Guard,
	publisher domain.EventPublisher,
	settlements domain.SettlementRepository,
	rules config.GameRules,
) *EscrowUseCase {
	return &EscrowUseCase{
		games:       games,
		wallet:      wallet,
		guard:       guard,
		publisher:   publisher,
		settlements: settlements,
		rules:       rules,
		inFlight:    make(map[int64]struct{}),
	}
}

// enter marks the game as having an operation in flight. A nested call into
// the same game — the external token calling back before the first operation
// committed — is rejected instead of observing torn state.
func (uc *EscrowUseCase) enter(gameID int64) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, busy := uc.inFlight[gameID]; busy {
		return domain.ErrReentrancy
	}
	uc.inFlight[gameID] = struct{}{}
	return nil
}

func (uc *EscrowUseCase) leave(gameID int64) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.inFlight, gameID)
}

func (uc *EscrowUseCase) publish(ctx context.Context, event *domain.GameEvent) {
	if uc.publisher != nil {
		uc.publisher.Publish(ctx, event)
	}
}

// CreateGame registers a new pending game. The id is caller-chosen unless the
// auto-assign policy is configured, in which case the argument is ignored.
func (uc *EscrowUseCase) CreateGame(ctx context.Context, caller, id, stake int64) (*domain.Game, error) {
	ctx = logger.WithFields(ctx, map[string]interface{}{"caller": caller})

	if caller <= 0 {
		return nil, domain.ErrInvalidIdentity
	}
	if uc.guard.Paused() {
		return nil, domain.ErrPaused
	}
	if !uc.rules.OpenCreation && !uc.guard.IsAdministrator(caller) {
		return nil, fmt.Errorf("%w: game creation is restricted to administrators", domain.ErrUnauthorized)
	}
	if stake <= 0 || stake > uc.rules.MaxStake {
		return nil, fmt.Errorf("%w: got %d, ceiling %d", domain.ErrInvalidStake, stake, uc.rules.MaxStake)
	}

	if uc.rules.AutoAssignIDs {
		var err error
		if id, err = uc.games.NextID(ctx); err != nil {
			return nil, fmt.Errorf("failed to assign game id: %w", err)
		}
	} else if id <= 0 {
		return nil, domain.ErrInvalidGameID
	}

	g := domain.NewGame(id, caller, stake)
	if err := uc.games.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to create game %d: %w", id, err)
	}

	logger.Info(ctx).
		Int64("game_id", g.ID).
		Int64("stake", g.Stake).
		Msg("game created")

	uc.publish(ctx, domain.NewGameEvent(domain.EventGameCreated, g))
	return g, nil
}

// Join stakes the caller into a pending game. The debit and the membership
// update commit as one unit: a failed debit leaves no trace of the join.
func (uc *EscrowUseCase) Join(ctx context.Context, caller, gameID int64) error {
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
		return fmt.Errorf("join game %d: %w", gameID, err)
	}
	if g.Status != domain.StatusPending {
		return fmt.Errorf("%w: game %d is %s", domain.ErrGameNotPending, gameID, g.Status)
	}
	if g.HasPlayer(caller) {
		return fmt.Errorf("%w: game %d", domain.ErrAlreadyJoined, gameID)
	}
	if len(g.Players) >= uc.rules.MaxPlayers {
		return fmt.Errorf("%w: game %d holds %d players", domain.ErrGameFull, gameID, len(g.Players))
	}

	g.AddPlayer(caller)

	if _, err := uc.wallet.Debit(ctx, caller, g.Stake, fmt.Sprintf("stake:%d", gameID)); err != nil {
		logger.Warn(ctx).Err(err).Int64("stake", g.Stake).Msg("stake debit failed, join aborted")
		return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	if err := uc.games.Save(ctx, g); err != nil {
		return fmt.Errorf("failed to record join for game %d: %w", gameID, err)
	}

	logger.Info(ctx).
		Int("players", len(g.Players)).
		Int64("total_staked", g.TotalStaked).
		Msg("player joined")

	event := domain.NewGameEvent(domain.EventPlayerJoined, g)
	event.Player = caller
	uc.publish(ctx, event)
	return nil
}

// Withdraw removes the caller from a pending game and credits the stake back.
// The credit and the removal are one atomic unit.
func (uc *EscrowUseCase) Withdraw(ctx context.Context, caller, gameID int64) error {
	ctx = logger.WithFields(ctx, map[string]interface{}{"caller": caller, "game_id": gameID})

	if caller <= 0 {
		return domain.ErrInvalidIdentity
	}
	// Deliberately not pause-gated: participants can always exit.
	if err := uc.enter(gameID); err != nil {
		return err
	}
	defer uc.leave(gameID)

	g, err := uc.games.Get(ctx, gameID)
	if err != nil {
		return fmt.Errorf("withdraw from game %d: %w", gameID, err)
	}
	if g.Status != domain.StatusPending {
		return fmt.Errorf("%w: game %d is %s", domain.ErrGameNotPending, gameID, g.Status)
	}
	if !g.RemovePlayer(caller) {
		return fmt.Errorf("%w: identity %d never joined game %d", domain.ErrUnauthorized, caller, gameID)
	}

	if _, err := uc.wallet.Credit(ctx, caller, g.Stake, fmt.Sprintf("withdraw:%d", gameID)); err != nil {
		logger.Warn(ctx).Err(err).Int64("stake", g.Stake).Msg("refund credit failed, withdrawal aborted")
		return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	if err := uc.games.Save(ctx, g); err != nil {
		return fmt.Errorf("failed to record withdrawal for game %d: %w", gameID, err)
	}

	logger.Info(ctx).
		Int("players", len(g.Players)).
		Int64("total_staked", g.TotalStaked).
		Msg("player withdrew")

	event := domain.NewGameEvent(domain.EventPlayerWithdrew, g)
	event.Player = caller
	uc.publish(ctx, event)
	return nil
}

// Pause gates create, join and start. Withdrawal and resolution stay open so
// funds already in custody can always leave.
func (uc *EscrowUseCase) Pause(ctx context.Context, caller int64) error {
	if !uc.guard.IsAdministrator(caller) {
		return fmt.Errorf("%w: pause is administrator-only", domain.ErrUnauthorized)
	}
	uc.guard.SetPaused(true)
	logger.Info(ctx).Int64("caller", caller).Msg("system paused")
	return nil
}

// Unpause lifts the global pause gate
func (uc *EscrowUseCase) Unpause(ctx context.Context, caller int64) error {
	if !uc.guard.IsAdministrator(caller) {
		return fmt.Errorf("%w: unpause is administrator-only", domain.ErrUnauthorized)
	}
	uc.guard.SetPaused(false)
	logger.Info(ctx).Int64("caller", caller).Msg("system unpaused")
	return nil
}

// --- Read surface (side-effect free) ---

// GetGame returns the game or ErrGameNotFound
func (uc *EscrowUseCase) GetGame(ctx context.Context, gameID int64) (*domain.Game, error) {
	return uc.games.Get(ctx, gameID)
}

// GetGames returns games by position in creation order, [start, end)
func (uc *EscrowUseCase) GetGames(ctx context.Context, start, end int) ([]*domain.Game, error) {
	return uc.games.List(ctx, start, end)
}

// GameIDs returns every created id in creation order
func (uc *EscrowUseCase) GameIDs(ctx context.Context) ([]int64, error) {
	return uc.games.IDs(ctx)
}

// TotalGames returns the number of created games
func (uc *EscrowUseCase) TotalGames(ctx context.Context) (int, error) {
	return uc.games.Count(ctx)
}

// GameExists reports whether the id has been created
func (uc *EscrowUseCase) GameExists(ctx context.Context, gameID int64) (bool, error) {
	return uc.games.Exists(ctx, gameID)
}

// Rules returns the read-only system parameters
func (uc *EscrowUseCase) Rules() config.GameRules {
	return uc.rules
}

// Paused reports the global pause gate
func (uc *EscrowUseCase) Paused() bool {
	return uc.guard.Paused()
}
