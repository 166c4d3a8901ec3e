package models

import (
	"github.com/shopspring/decimal"
)

// MovingAverage applies a movement of qty units costing cost in total to an item holding
// onHand units at avgCost. The new average is 0 when nothing is left on hand.
// Reversals pass the negated qty and cost of the movement they undo.
func MovingAverage(onHand, avgCost, qty, cost decimal.Decimal) (newQty decimal.Decimal, newAvg decimal.Decimal) {
	newQty = onHand.Add(qty)
	if newQty.IsZero() {
		return newQty, decimal.Zero
	}
	newAvg = onHand.Mul(avgCost).Add(cost).Div(newQty)
	return newQty, RoundCost(newAvg)
}

// UnitCost divides total by count, 0 when count is 0.
func UnitCost(total, count decimal.Decimal) decimal.Decimal {
	if count.IsZero() {
		return decimal.Zero
	}
	return RoundCost(total.Div(count))
}

// IngredientUse is the share of a production run's coffee drawn from one stock item.
type IngredientUse struct {
	StockItemId string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	TotalCost   decimal.Decimal
}

// RecipeUsage splits totalKg across the recipe by ratio and costs each share at the
// ingredient's current average. avgCost returns the average for a stock item id.
func RecipeUsage(ingredients []BlendIngredient, totalKg decimal.Decimal, avgCost func(stockItemId string) decimal.Decimal) []IngredientUse {
	hundred := decimal.NewFromInt(100)
	uses := make([]IngredientUse, 0, len(ingredients))
	for _, ing := range ingredients {
		qty := ing.Ratio.Div(hundred).Mul(totalKg)
		unit := avgCost(ing.StockItemId)
		uses = append(uses, IngredientUse{
			StockItemId: ing.StockItemId,
			Quantity:    qty,
			UnitCost:    unit,
			TotalCost:   RoundCost(unit.Mul(qty)),
		})
	}
	return uses
}

// AverageProductionCost is the all-time average unit cost of a finished good,
// over Production movements that have not been reversed.
func AverageProductionCost(movements []InventoryMovement, key string) decimal.Decimal {
	qty := decimal.Zero
	cost := decimal.Zero
	for _, m := range movements {
		if m.ItemKind != ItemKindFinishedGood || m.ItemId != key || m.Reason != MovementReasonProduction || !m.IsLive() {
			continue
		}
		qty = qty.Add(m.QtyDelta)
		cost = cost.Add(m.TotalCost)
	}
	return UnitCost(cost, qty)
}

// FinishedGoodOnHand sums every movement for the key, reversals included.
func FinishedGoodOnHand(movements []InventoryMovement, key string) decimal.Decimal {
	qty := decimal.Zero
	for _, m := range movements {
		if m.ItemKind == ItemKindFinishedGood && m.ItemId == key && m.Status == RecordStatusActive {
			qty = qty.Add(m.QtyDelta)
		}
	}
	return qty
}

// ReplayStockItem recomputes quantity and moving average for a stock item
// from its movements, in the order given.
func ReplayStockItem(movements []InventoryMovement, stockItemId string) (qty decimal.Decimal, avg decimal.Decimal) {
	qty, avg = decimal.Zero, decimal.Zero
	for _, m := range movements {
		if m.ItemKind != ItemKindStockItem || m.ItemId != stockItemId || m.Status != RecordStatusActive {
			continue
		}
		qty, avg = MovingAverage(qty, avg, m.QtyDelta, m.TotalCost)
	}
	return qty, avg
}

// SourceTotals nets quantity and cost of all movements for a source.
func SourceTotals(movements []InventoryMovement, sourceType SourceType, sourceId string) (qty decimal.Decimal, cost decimal.Decimal) {
	qty, cost = decimal.Zero, decimal.Zero
	for _, m := range movements {
		if m.SourceType == sourceType && m.SourceId == sourceId && m.Status == RecordStatusActive {
			qty = qty.Add(m.QtyDelta)
			cost = cost.Add(m.TotalCost)
		}
	}
	return qty, cost
}
