package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/builders-garden/squabble-engine/internal/modules/escrow/domain"
	"github.com/builders-garden/squabble-engine/pkg/logger"
)

// EventChannel is the pub/sub channel indexers subscribe to
const EventChannel = "squabble:events"

// RedisPublisher implements domain.EventPublisher over redis pub/sub
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a new redis event publisher
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// Publish implements domain.EventPublisher
func (p *RedisPublisher) Publish(ctx context.Context, event *domain.GameEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error(ctx).Err(err).Str("event_id", event.EventID).Msg("failed to marshal event")
		return
	}
	if err := p.rdb.Publish(ctx, EventChannel, data).Err(); err != nil {
		logger.Warn(ctx).Err(err).Str("event_id", event.EventID).Msg("failed to publish event to redis")
	}
}
