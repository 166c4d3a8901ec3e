package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockAdjustment is a manual stock count correction, costed at the current average.
type StockAdjustment struct {
	ID             string          `gorm:"size:36;primary_key" json:"id"`
	StockItemId    string          `gorm:"size:36;not null;index" json:"stock_item_id"`
	AdjustmentDate time.Time       `gorm:"not null;index" json:"adjustment_date"`
	QtyDelta       decimal.Decimal `gorm:"type:decimal(28,8);not null" json:"qty_delta"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(28,8);not null" json:"unit_cost"`
	TotalCost      decimal.Decimal `gorm:"type:decimal(28,8);not null" json:"total_cost"`
	Reason         string          `gorm:"size:255" json:"reason"`
	VoidInfo
	CorrelationId string    `gorm:"size:64" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (StockAdjustment) TableName() string { return "stock_adjustments" }

func (a StockAdjustment) GetId() string { return a.ID }

type NewAdjustment struct {
	StockItemId    string          `json:"stock_item_id" validate:"required"`
	AdjustmentDate time.Time       `json:"adjustment_date" validate:"required"`
	QtyDelta       decimal.Decimal `json:"qty_delta"`
	Reason         string          `json:"reason" validate:"required,max=255"`
}

type VoidRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}
