package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type BlendIngredient struct {
	StockItemId string          `json:"stock_item_id" validate:"required"`
	Ratio       decimal.Decimal `json:"ratio"`
}

// BlendRecipe mixes stock items by percentage.
type BlendRecipe struct {
	ID          string                    `gorm:"size:36;primary_key" json:"id"`
	Name        string                    `gorm:"size:150;not null" json:"name"`
	Ingredients JSONList[BlendIngredient] `gorm:"type:text" json:"ingredients"`
	IsActive    bool                      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time                 `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt   time.Time                 `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (BlendRecipe) TableName() string { return "blend_recipes" }

func (r BlendRecipe) GetId() string { return r.ID }

type NewBlendRecipe struct {
	Name        string            `json:"name" validate:"required,max=150"`
	Ingredients []BlendIngredient `json:"ingredients" validate:"required,min=1,dive"`
}

type UpdateBlendRecipe struct {
	Name        string            `json:"name" validate:"required,max=150"`
	Ingredients []BlendIngredient `json:"ingredients" validate:"required,min=1,dive"`
	IsActive    *bool             `json:"is_active"`
}

// ValidateIngredients requires positive ratios summing to exactly 100 with no repeated item.
func ValidateIngredients(ingredients []BlendIngredient) error {
	if len(ingredients) == 0 {
		return fmt.Errorf("%w: no ingredients", ErrInvalidRecipe)
	}
	seen := make(map[string]bool, len(ingredients))
	total := decimal.Zero
	for _, ing := range ingredients {
		if ing.StockItemId == "" {
			return fmt.Errorf("%w: ingredient without stock item", ErrInvalidRecipe)
		}
		if seen[ing.StockItemId] {
			return fmt.Errorf("%w: stock item %s listed twice", ErrInvalidRecipe, ing.StockItemId)
		}
		seen[ing.StockItemId] = true
		if !ing.Ratio.IsPositive() {
			return fmt.Errorf("%w: ratio for %s must be positive", ErrInvalidRecipe, ing.StockItemId)
		}
		total = total.Add(ing.Ratio)
	}
	if !total.Equal(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: got %s", ErrInvalidRecipe, total.String())
	}
	return nil
}
