package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderLine struct {
	Brand       string          `json:"brand" validate:"required"`
	ProductName string          `json:"product_name" validate:"required"`
	PackSize    string          `json:"pack_size" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (l OrderLine) FinishedGoodKey() string {
	return FinishedGoodKey(l.Brand, l.ProductName, l.PackSize)
}

func (l OrderLine) LineTotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Round(2)
}

// Order is a customer order. Shipping it creates a Sale; the order itself posts nothing.
type Order struct {
	ID                string              `gorm:"size:36;primary_key" json:"id"`
	CustomerId        string              `gorm:"size:36;not null;index" json:"customer_id"`
	OrderDate         time.Time           `gorm:"not null;index" json:"order_date"`
	Lines             JSONList[OrderLine] `gorm:"type:text" json:"lines"`
	Total             decimal.Decimal     `gorm:"type:decimal(28,8);not null" json:"total"`
	FulfillmentStatus FulfillmentStatus   `gorm:"size:20;not null" json:"fulfillment_status"`
	ShippedAt         *time.Time          `json:"shipped_at"`
	SaleId            *string             `gorm:"size:36" json:"sale_id"`
	Notes             string              `gorm:"type:text" json:"notes"`
	VoidInfo
	CorrelationId string    `gorm:"size:64" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

func (o Order) GetId() string { return o.ID }

type NewOrder struct {
	CustomerId string      `json:"customer_id" validate:"required"`
	OrderDate  time.Time   `json:"order_date" validate:"required"`
	Lines      []OrderLine `json:"lines" validate:"required,min=1,dive"`
	Notes      string      `json:"notes"`
}

type ShipOrder struct {
	ShipDate time.Time `json:"ship_date" validate:"required"`
}
