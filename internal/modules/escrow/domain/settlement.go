package domain

import (
	"context"
	"time"
)

// SettlementRecord is the persisted history row for a terminal transition
type SettlementRecord struct {
	GameID       int64     `gorm:"primaryKey" json:"game_id"`
	Creator      int64     `gorm:"not null" json:"creator"`
	Stake        int64     `gorm:"not null" json:"stake"`
	Outcome      string    `gorm:"type:varchar(16);not null;index:idx_settlements_outcome" json:"outcome"`
	Winner       int64     `gorm:"default:0" json:"winner"`
	TotalPlayers int       `gorm:"default:0" json:"total_players"`
	TotalPaid    int64     `gorm:"default:0" json:"total_paid"`
	EndedAt      time.Time `gorm:"not null;index:idx_settlements_ended_at" json:"ended_at"`
}

// TableName overrides the table name
func (SettlementRecord) TableName() string {
	return "settlements"
}

// PayoutOrder is one custody credit performed during settlement
type PayoutOrder struct {
	OrderID   string    `gorm:"primaryKey;type:varchar(64)" json:"order_id"`
	GameID    int64     `gorm:"not null;index:idx_payout_orders_game_id" json:"game_id"`
	Account   int64     `gorm:"not null;index:idx_payout_orders_account" json:"account"`
	Amount    int64     `gorm:"not null" json:"amount"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName overrides the table name
func (PayoutOrder) TableName() string {
	return "payout_orders"
}

// SettlementRepository persists settlement history. Writes happen after funds
// have moved; a failure here is logged, never propagated.
type SettlementRepository interface {
	Create(ctx context.Context, record *SettlementRecord) error
	BatchCreatePayouts(ctx context.Context, orders []*PayoutOrder) error
}
