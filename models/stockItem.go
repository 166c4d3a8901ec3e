package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItem is green coffee, roast stock or a packaging material.
// Quantity and AverageCost are materialised from its movements.
type StockItem struct {
	ID           string          `gorm:"size:36;primary_key" json:"id"`
	Kind         StockItemKind   `gorm:"size:20;not null;index" json:"kind"`
	Name         string          `gorm:"size:150;not null" json:"name"`
	Unit         string          `gorm:"size:20;not null" json:"unit"`
	Quantity     decimal.Decimal `gorm:"type:decimal(28,8);not null" json:"quantity"`
	AverageCost  decimal.Decimal `gorm:"type:decimal(28,8);not null" json:"average_cost"`
	ReorderLevel decimal.Decimal `gorm:"type:decimal(28,8);not null" json:"reorder_level"`
	IsActive     bool            `gorm:"not null" json:"is_active"`
	Notes        string          `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time       `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (StockItem) TableName() string { return "stock_items" }

func (s StockItem) GetId() string { return s.ID }

// CarryingValue is quantity at the current moving average.
func (s StockItem) CarryingValue() decimal.Decimal {
	return s.Quantity.Mul(s.AverageCost).Round(2)
}

func (s StockItem) IsLow() bool {
	return s.Quantity.LessThanOrEqual(s.ReorderLevel)
}

type NewStockItem struct {
	Kind         StockItemKind   `json:"kind" validate:"required"`
	Name         string          `json:"name" validate:"required,max=150"`
	Unit         string          `json:"unit" validate:"required,max=20"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	Notes        string          `json:"notes"`
}

// UpdateStockItem only touches catalog fields; quantity and cost move through movements.
type UpdateStockItem struct {
	Name         string          `json:"name" validate:"required,max=150"`
	Unit         string          `json:"unit" validate:"required,max=20"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	IsActive     *bool           `json:"is_active"`
	Notes        string          `json:"notes"`
}
