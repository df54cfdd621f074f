package domain

import "errors"

// Sentinel errors of the escrow engine. Call sites wrap them with
// fmt.Errorf("...: %w", err) and callers classify with errors.Is.
var (
	// invalid input
	ErrInvalidStake    = errors.New("stake must be positive and within the configured ceiling")
	ErrInvalidIdentity = errors.New("identity must be non-zero")
	ErrInvalidGameID   = errors.New("game id must be positive")
	ErrInvalidRange    = errors.New("invalid range bounds")

	// not found
	ErrGameNotFound = errors.New("game not found")

	// state conflicts
	ErrGameExists       = errors.New("game already exists")
	ErrGameNotPending   = errors.New("game is not pending")
	ErrGameNotPlaying   = errors.New("game is not playing")
	ErrAlreadyJoined    = errors.New("identity already joined this game")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrInvalidWinner    = errors.New("winner is not a participant")

	// capacity
	ErrGameFull = errors.New("game is full")

	// authorization
	ErrUnauthorized = errors.New("caller is not authorized")

	// external collaborators
	ErrTransferFailed = errors.New("ledger transfer failed")
	ErrReentrancy     = errors.New("reentrant call rejected")
	ErrPaused         = errors.New("system is paused")
)
