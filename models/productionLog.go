package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PackagingUse struct {
	StockItemId string          `json:"stock_item_id" validate:"required"`
	Role        PackagingRole   `json:"role" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}

// ProductionLog is a roasting/packing run: coffee plus packaging in, finished packs out.
// Exactly one of StockItemId and RecipeId is set.
type ProductionLog struct {
	ID             string                 `gorm:"size:36;primary_key" json:"id"`
	ProductionDate time.Time              `gorm:"not null;index" json:"production_date"`
	Brand          string                 `gorm:"size:100;not null" json:"brand"`
	ProductName    string                 `gorm:"size:150;not null" json:"product_name"`
	PackSize       string                 `gorm:"size:50;not null" json:"pack_size"`
	PackCount      decimal.Decimal        `gorm:"type:decimal(28,8);not null" json:"pack_count"`
	StockItemId    *string                `gorm:"size:36" json:"stock_item_id"`
	RecipeId       *string                `gorm:"size:36" json:"recipe_id"`
	TotalCoffeeKg  decimal.Decimal        `gorm:"type:decimal(28,8);not null" json:"total_coffee_kg"`
	PackagingUses  JSONList[PackagingUse] `gorm:"type:text" json:"packaging_uses"`
	CoffeeCost     decimal.Decimal        `gorm:"type:decimal(28,8);not null" json:"coffee_cost"`
	PackagingCost  decimal.Decimal        `gorm:"type:decimal(28,8);not null" json:"packaging_cost"`
	TotalCost      decimal.Decimal        `gorm:"type:decimal(28,8);not null" json:"total_cost"`
	UnitCost       decimal.Decimal        `gorm:"type:decimal(28,8);not null" json:"unit_cost"`
	Notes          string                 `gorm:"type:text" json:"notes"`
	VoidInfo
	CorrelationId string    `gorm:"size:64" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (ProductionLog) TableName() string { return "production_logs" }

func (p ProductionLog) GetId() string { return p.ID }

func (p ProductionLog) FinishedGoodKey() string {
	return FinishedGoodKey(p.Brand, p.ProductName, p.PackSize)
}

type NewProduction struct {
	ProductionDate time.Time       `json:"production_date" validate:"required"`
	Brand          string          `json:"brand" validate:"required,max=100"`
	ProductName    string          `json:"product_name" validate:"required,max=150"`
	PackSize       string          `json:"pack_size" validate:"required,max=50"`
	PackCount      decimal.Decimal `json:"pack_count"`
	StockItemId    *string         `json:"stock_item_id"`
	RecipeId       *string         `json:"recipe_id"`
	TotalCoffeeKg  decimal.Decimal `json:"total_coffee_kg"`
	PackagingUses  []PackagingUse  `json:"packaging_uses" validate:"dive"`
	Notes          string          `json:"notes"`
}
