// Package redis provides a redis-backed game registry.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/builders-garden/squabble-engine/internal/modules/escrow/domain"
)

const (
	gamesKey  = "squabble:games"    // hash: id -> game JSON
	orderKey  = "squabble:game_ids" // list: ids in creation order
	nextIDKey = "squabble:next_id"  // counter for the auto-assign policy
)

// GameRepository implements domain.GameRepository on Redis. Games are stored as
// JSON in a hash keyed by id, with a list preserving creation order.
type GameRepository struct {
	rdb *redis.Client
}

// NewGameRepository creates a new redis game repository
func NewGameRepository(rdb *redis.Client) *GameRepository {
	return &GameRepository{rdb: rdb}
}

func (r *GameRepository) Create(ctx context.Context, g *domain.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}

	field := strconv.FormatInt(g.ID, 10)
	set, err := r.rdb.HSetNX(ctx, gamesKey, field, data).Result()
	if err != nil {
		return err
	}
	if !set {
		return domain.ErrGameExists
	}
	return r.rdb.RPush(ctx, orderKey, g.ID).Err()
}

func (r *GameRepository) Save(ctx context.Context, g *domain.Game) error {
	exists, err := r.Exists(ctx, g.ID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrGameNotFound
	}

	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return r.rdb.HSet(ctx, gamesKey, strconv.FormatInt(g.ID, 10), data).Err()
}

func (r *GameRepository) Get(ctx context.Context, id int64) (*domain.Game, error) {
	data, err := r.rdb.HGet(ctx, gamesKey, strconv.FormatInt(id, 10)).Result()
	if err == redis.Nil {
		return nil, domain.ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}

	var g domain.Game
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return nil, fmt.Errorf("corrupt game record %d: %w", id, err)
	}
	return &g, nil
}

func (r *GameRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return r.rdb.HExists(ctx, gamesKey, strconv.FormatInt(id, 10)).Result()
}

func (r *GameRepository) List(ctx context.Context, start, end int) ([]*domain.Game, error) {
	count, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}
	if start < 0 || end < start || end > count {
		return nil, domain.ErrInvalidRange
	}
	if start == end {
		return []*domain.Game{}, nil
	}

	ids, err := r.rdb.LRange(ctx, orderKey, int64(start), int64(end-1)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Game, 0, len(ids))
	for _, idStr := range ids {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		g, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *GameRepository) IDs(ctx context.Context) ([]int64, error) {
	raw, err := r.rdb.LRange(ctx, orderKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *GameRepository) Count(ctx context.Context) (int, error) {
	n, err := r.rdb.LLen(ctx, orderKey).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *GameRepository) NextID(ctx context.Context) (int64, error) {
	return r.rdb.Incr(ctx, nextIDKey).Result()
}
