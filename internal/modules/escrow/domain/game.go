// Package domain defines the escrow engine's core records and contracts.
package domain

import "time"

// GameStatus defines the lifecycle state of a game.
// Transitions are monotonic: Pending -> Playing -> Ended.
type GameStatus int

const (
	StatusUnknown GameStatus = 0 // zero value, never stored for a created game
	StatusPending GameStatus = 1 // accepting joins and withdrawals
	StatusPlaying GameStatus = 2 // started, awaiting resolution
	StatusEnded   GameStatus = 3 // terminal, custody fully distributed
)

func (s GameStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusPlaying:
		return "playing"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Outcome records how an ended game was settled.
type Outcome int

const (
	OutcomeNone      Outcome = 0 // not settled yet
	OutcomeWinner    Outcome = 1 // single winner took the pool
	OutcomeDraw      Outcome = 2 // every participant refunded
	OutcomeCancelled Outcome = 3 // cancelled before start, joined stakes refunded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWinner:
		return "winner"
	case OutcomeDraw:
		return "draw"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Game is one wagering round. Players is insertion-ordered and duplicate-free;
// TotalStaked equals Stake * len(Players) while the game is live and 0 once ended.
type Game struct {
	ID          int64      `json:"id"`
	Creator     int64      `json:"creator"`
	Stake       int64      `json:"stake"`
	Status      GameStatus `json:"status"`
	Players     []int64    `json:"players"`
	TotalStaked int64      `json:"total_staked"`
	Winner      int64      `json:"winner,omitempty"`
	Outcome     Outcome    `json:"outcome"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewGame creates a pending game with no participants
func NewGame(id, creator, stake int64) *Game {
	return &Game{
		ID:        id,
		Creator:   creator,
		Stake:     stake,
		Status:    StatusPending,
		Players:   make([]int64, 0, 4),
		CreatedAt: time.Now(),
	}
}

// HasPlayer reports whether the identity already joined
func (g *Game) HasPlayer(id int64) bool {
	for _, p := range g.Players {
		if p == id {
			return true
		}
	}
	return false
}

// AddPlayer appends the identity and grows the staked total
func (g *Game) AddPlayer(id int64) {
	g.Players = append(g.Players, id)
	g.TotalStaked += g.Stake
}

// RemovePlayer removes the identity preserving the relative order of the
// remainder. Settlement by position depends on stable ordering, so this is a
// shift, not a swap-and-pop. Returns false if the identity never joined.
func (g *Game) RemovePlayer(id int64) bool {
	for i, p := range g.Players {
		if p == id {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			g.TotalStaked -= g.Stake
			return true
		}
	}
	return false
}

// PlayerAt returns the participant at the given position
func (g *Game) PlayerAt(position int) (int64, bool) {
	if position < 0 || position >= len(g.Players) {
		return 0, false
	}
	return g.Players[position], true
}

// Clone returns a deep copy. The engine mutates clones and commits them as a
// whole, so a failed operation can never leave a half-updated record behind.
func (g *Game) Clone() *Game {
	c := *g
	c.Players = make([]int64, len(g.Players))
	copy(c.Players, g.Players)
	return &c
}
