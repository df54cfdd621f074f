// Package db provides the gorm-backed settlement history repository.
package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/builders-garden/squabble-engine/internal/modules/escrow/domain"
)

// SettlementRepository persists settlement records and payout orders
type SettlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *gorm.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// Migrate creates the history tables
func (r *SettlementRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&domain.SettlementRecord{}, &domain.PayoutOrder{})
}

func (r *SettlementRepository) Create(ctx context.Context, record *domain.SettlementRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *SettlementRepository) BatchCreatePayouts(ctx context.Context, orders []*domain.PayoutOrder) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&orders).Error
}
