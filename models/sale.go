package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleLine struct {
	Brand       string          `json:"brand"`
	ProductName string          `json:"product_name"`
	PackSize    string          `json:"pack_size"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cost        decimal.Decimal `json:"cost"`
}

// Sale is the shipped side of an order, carrying revenue and COGS.
type Sale struct {
	ID         string             `gorm:"size:36;primary_key" json:"id"`
	OrderId    string             `gorm:"size:36;not null;index" json:"order_id"`
	CustomerId string             `gorm:"size:36;not null;index" json:"customer_id"`
	SaleDate   time.Time          `gorm:"not null;index" json:"sale_date"`
	Lines      JSONList[SaleLine] `gorm:"type:text" json:"lines"`
	Revenue    decimal.Decimal    `gorm:"type:decimal(28,8);not null" json:"revenue"`
	COGS       decimal.Decimal    `gorm:"column:cogs;type:decimal(28,8);not null" json:"cogs"`
	VoidInfo
	CorrelationId string    `gorm:"size:64" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (Sale) TableName() string { return "sales" }

func (s Sale) GetId() string { return s.ID }

func (s Sale) GrossProfit() decimal.Decimal {
	return s.Revenue.Sub(s.COGS)
}
