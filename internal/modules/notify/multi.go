package notify

import (
	"context"

	"github.com/builders-garden/squabble-engine/internal/modules/escrow/domain"
)

// MultiPublisher fans each event out to several publishers
type MultiPublisher struct {
	publishers []domain.EventPublisher
}

// NewMultiPublisher creates a publisher that forwards to all the given ones
func NewMultiPublisher(publishers ...domain.EventPublisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers}
}

// Publish implements domain.EventPublisher
func (m *MultiPublisher) Publish(ctx context.Context, event *domain.GameEvent) {
	for _, p := range m.publishers {
		p.Publish(ctx, event)
	}
}
