// Package access holds the administrator set, the global pause gate and the
// token codec used to authenticate callers.
package access

import (
	"sync"

	"github.com/builders-garden/squabble-engine/internal/modules/escrow/domain"
)

// Guard answers authorization questions for the escrow engine
type Guard struct {
	mu     sync.RWMutex
	admins map[int64]struct{}
	paused bool
}

// NewGuard creates a guard with the given administrator ids
func NewGuard(admins []int64) *Guard {
	g := &Guard{admins: make(map[int64]struct{}, len(admins))}
	for _, id := range admins {
		g.admins[id] = struct{}{}
	}
	return g
}

// IsAdministrator reports whether the identity is an administrator
func (g *Guard) IsAdministrator(id int64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.admins[id]
	return ok
}

// IsCreator reports whether the identity created the game
func (g *Guard) IsCreator(game *domain.Game, id int64) bool {
	return game != nil && game.Creator == id
}

// Paused reports whether new-activity operations are gated
func (g *Guard) Paused() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.paused
}

// SetPaused flips the global pause gate
func (g *Guard) SetPaused(paused bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = paused
}
