package domain

import "context"

// EventPublisher fans committed lifecycle events out to external consumers
// (indexers, UIs). Publish must not block settlement.
type EventPublisher interface {
	Publish(ctx context.Context, event *GameEvent)
}
