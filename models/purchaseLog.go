package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseLog records stock bought from a supplier. Posts a Purchase movement and,
// with a supplier, a Debit Purchase ledger entry.
type PurchaseLog struct {
	ID            string          `gorm:"size:36;primary_key" json:"id"`
	StockItemId   string          `gorm:"size:36;not null;index" json:"stock_item_id"`
	SupplierId    *string         `gorm:"size:36;index" json:"supplier_id"`
	PurchaseDate  time.Time       `gorm:"not null;index" json:"purchase_date"`
	Quantity      decimal.Decimal `gorm:"type:decimal(28,8);not null" json:"quantity"`
	TotalCost     decimal.Decimal `gorm:"type:decimal(28,8);not null" json:"total_cost"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(28,8);not null" json:"unit_cost"`
	InvoiceNumber string          `gorm:"size:100" json:"invoice_number"`
	Notes         string          `gorm:"type:text" json:"notes"`
	VoidInfo
	CorrelationId string    `gorm:"size:64" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (PurchaseLog) TableName() string { return "purchase_logs" }

func (p PurchaseLog) GetId() string { return p.ID }

type NewPurchase struct {
	StockItemId   string          `json:"stock_item_id" validate:"required"`
	SupplierId    *string         `json:"supplier_id"`
	PurchaseDate  time.Time       `json:"purchase_date" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	InvoiceNumber string          `json:"invoice_number"`
	Notes         string          `json:"notes"`
}
