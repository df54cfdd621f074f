// Package memory provides the in-memory game registry.
package memory

import (
	"context"
	"sync"

	"github.com/builders-garden/squabble-engine/internal/modules/escrow/domain"
)

// GameRepository implements domain.GameRepository in memory: an id -> game map
// plus the ordered list of created ids. Get and List hand out deep copies so
// the engine's copy-then-commit discipline holds.
type GameRepository struct {
	mu     sync.RWMutex
	games  map[int64]*domain.Game
	order  []int64
	nextID int64
}

// NewGameRepository creates a new memory game repository
func NewGameRepository() *GameRepository {
	return &GameRepository{
		games: make(map[int64]*domain.Game),
	}
}

func (r *GameRepository) Create(ctx context.Context, g *domain.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.games[g.ID]; exists {
		return domain.ErrGameExists
	}
	r.games[g.ID] = g.Clone()
	r.order = append(r.order, g.ID)
	if g.ID > r.nextID {
		r.nextID = g.ID
	}
	return nil
}

func (r *GameRepository) Save(ctx context.Context, g *domain.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.games[g.ID]; !exists {
		return domain.ErrGameNotFound
	}
	r.games[g.ID] = g.Clone()
	return nil
}

func (r *GameRepository) Get(ctx context.Context, id int64) (*domain.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, exists := r.games[id]
	if !exists {
		return nil, domain.ErrGameNotFound
	}
	return g.Clone(), nil
}

func (r *GameRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.games[id]
	return exists, nil
}

func (r *GameRepository) List(ctx context.Context, start, end int) ([]*domain.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if start < 0 || end < start || end > len(r.order) {
		return nil, domain.ErrInvalidRange
	}

	out := make([]*domain.Game, 0, end-start)
	for _, id := range r.order[start:end] {
		out = append(out, r.games[id].Clone())
	}
	return out, nil
}

func (r *GameRepository) IDs(ctx context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, len(r.order))
	copy(ids, r.order)
	return ids, nil
}

func (r *GameRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order), nil
}

func (r *GameRepository) NextID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	return r.nextID, nil
}
