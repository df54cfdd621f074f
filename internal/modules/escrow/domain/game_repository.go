package domain

import "context"

// GameRepository is the game registry: the id -> Game mapping plus the ordered
// list of created ids. Implementations must return copies from Get and List so
// callers cannot mutate stored state in place.
type GameRepository interface {
	// Create inserts a new game, failing with ErrGameExists on id collision
	Create(ctx context.Context, g *Game) error

	// Save replaces the stored record for g.ID
	Save(ctx context.Context, g *Game) error

	// Get returns a copy of the game or ErrGameNotFound
	Get(ctx context.Context, id int64) (*Game, error)

	// Exists reports whether the id has been created
	Exists(ctx context.Context, id int64) (bool, error)

	// List returns games by position in creation order, [start, end).
	// Fails with ErrInvalidRange when bounds are inverted or exceed the count.
	List(ctx context.Context, start, end int) ([]*Game, error)

	// IDs returns all created ids in creation order
	IDs(ctx context.Context) ([]int64, error)

	// Count returns the number of created games
	Count(ctx context.Context) (int, error)

	// NextID reserves the next sequential id (auto-assign policy)
	NextID(ctx context.Context) (int64, error)
}
