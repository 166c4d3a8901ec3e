package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMovingAverage_Examples(t *testing.T) {
	qty, avg := MovingAverage(decimal.Zero, decimal.Zero, d("100"), d("5000"))
	if !qty.Equal(d("100")) || !avg.Equal(d("50")) {
		t.Fatalf("first purchase: qty=%s avg=%s, want 100 / 50", qty, avg)
	}

	qty, avg = MovingAverage(qty, avg, d("50"), d("3000"))
	if !qty.Equal(d("150")) {
		t.Fatalf("second purchase qty=%s, want 150", qty)
	}
	if !avg.Round(2).Equal(d("53.33")) {
		t.Fatalf("second purchase avg=%s, want 53.33", avg)
	}
}

func TestMovingAverage_ZeroQuantityResetsAverage(t *testing.T) {
	qty, avg := MovingAverage(d("10"), d("7"), d("-10"), d("-70"))
	if !qty.IsZero() || !avg.IsZero() {
		t.Fatalf("expected 0/0, got %s/%s", qty, avg)
	}
}

func TestMovingAverage_ReversalRestoresAverage(t *testing.T) {
	qty, avg := MovingAverage(decimal.Zero, decimal.Zero, d("100"), d("5000"))
	qty, avg = MovingAverage(qty, avg, d("50"), d("3000"))
	qty, avg = MovingAverage(qty, avg, d("-50"), d("-3000"))
	if !qty.Equal(d("100")) {
		t.Fatalf("qty=%s, want 100", qty)
	}
	if avg.Sub(d("50")).Abs().GreaterThan(d("0.000001")) {
		t.Fatalf("avg=%s, want 50", avg)
	}
}

func TestMovingAverage_OrderIndependent(t *testing.T) {
	type purchase struct{ qty, cost string }
	purchases := []purchase{{"10", "120"}, {"25", "240"}, {"3", "45.5"}, {"40", "380"}}
	orders := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {2, 0, 3, 1}}

	totalQty := decimal.Zero
	totalCost := decimal.Zero
	for _, p := range purchases {
		totalQty = totalQty.Add(d(p.qty))
		totalCost = totalCost.Add(d(p.cost))
	}
	want := totalCost.Div(totalQty)

	for _, order := range orders {
		qty, avg := decimal.Zero, decimal.Zero
		for _, i := range order {
			qty, avg = MovingAverage(qty, avg, d(purchases[i].qty), d(purchases[i].cost))
		}
		if !qty.Equal(totalQty) {
			t.Fatalf("order %v: qty=%s, want %s", order, qty, totalQty)
		}
		if avg.Sub(want).Abs().GreaterThan(d("0.000001")) {
			t.Fatalf("order %v: avg=%s, want %s", order, avg, want)
		}
	}
}

func TestUnitCost(t *testing.T) {
	cases := []struct {
		total, count, want string
	}{
		{"140", "10", "14"},
		{"100", "0", "0"},
		{"10", "3", "3.33333333"},
	}
	for _, tc := range cases {
		if got := UnitCost(d(tc.total), d(tc.count)); !got.Equal(d(tc.want)) {
			t.Fatalf("UnitCost(%s, %s) = %s, want %s", tc.total, tc.count, got, tc.want)
		}
	}
}

func TestRecipeUsage_CoffeeCost(t *testing.T) {
	ingredients := []BlendIngredient{
		{StockItemId: "A", Ratio: d("60")},
		{StockItemId: "B", Ratio: d("40")},
	}
	costs := map[string]decimal.Decimal{"A": d("10"), "B": d("20")}
	uses := RecipeUsage(ingredients, d("10"), func(id string) decimal.Decimal { return costs[id] })

	total := decimal.Zero
	for _, u := range uses {
		total = total.Add(u.TotalCost)
	}
	if !total.Equal(d("140")) {
		t.Fatalf("coffee cost = %s, want 140", total)
	}
	if !uses[0].Quantity.Equal(d("6")) || !uses[1].Quantity.Equal(d("4")) {
		t.Fatalf("unexpected split: %s / %s", uses[0].Quantity, uses[1].Quantity)
	}
}

func TestValidateIngredients(t *testing.T) {
	cases := []struct {
		name    string
		in      []BlendIngredient
		wantErr bool
	}{
		{"sums to 100", []BlendIngredient{{"A", d("60")}, {"B", d("40")}}, false},
		{"decimal ratios", []BlendIngredient{{"A", d("33.5")}, {"B", d("66.5")}}, false},
		{"sums to 99", []BlendIngredient{{"A", d("59")}, {"B", d("40")}}, true},
		{"empty", nil, true},
		{"duplicate item", []BlendIngredient{{"A", d("50")}, {"A", d("50")}}, true},
		{"zero ratio", []BlendIngredient{{"A", d("100")}, {"B", d("0")}}, true},
	}
	for _, tc := range cases {
		err := ValidateIngredients(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidRecipe) {
				t.Fatalf("%s: expected ErrInvalidRecipe, got %v", tc.name, err)
			}
		} else if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestAverageProductionCost_IgnoresReversedRuns(t *testing.T) {
	key := FinishedGoodKey("House", "Espresso", "250g")
	reversedBy := "r1"
	movements := []InventoryMovement{
		{ItemKind: ItemKindFinishedGood, ItemId: key, Reason: MovementReasonProduction, QtyDelta: d("10"), TotalCost: d("100"), Status: RecordStatusActive},
		{ItemKind: ItemKindFinishedGood, ItemId: key, Reason: MovementReasonProduction, QtyDelta: d("10"), TotalCost: d("300"), Status: RecordStatusActive, ReversedByMovementId: &reversedBy},
		{ItemKind: ItemKindFinishedGood, ItemId: key, Reason: MovementReasonVoid, QtyDelta: d("-10"), TotalCost: d("-300"), Status: RecordStatusActive, IsReversal: true},
		{ItemKind: ItemKindFinishedGood, ItemId: key, Reason: MovementReasonProduction, QtyDelta: d("30"), TotalCost: d("500"), Status: RecordStatusActive},
		{ItemKind: ItemKindFinishedGood, ItemId: "other", Reason: MovementReasonProduction, QtyDelta: d("1"), TotalCost: d("999"), Status: RecordStatusActive},
	}
	if got := AverageProductionCost(movements, key); !got.Equal(d("15")) {
		t.Fatalf("avg = %s, want 15", got)
	}
	if got := FinishedGoodOnHand(movements, key); !got.Equal(d("40")) {
		t.Fatalf("on hand = %s, want 40", got)
	}
}

func TestReplayStockItem(t *testing.T) {
	movements := []InventoryMovement{
		{ItemKind: ItemKindStockItem, ItemId: "g1", QtyDelta: d("100"), TotalCost: d("5000"), Status: RecordStatusActive},
		{ItemKind: ItemKindStockItem, ItemId: "g1", QtyDelta: d("50"), TotalCost: d("3000"), Status: RecordStatusActive},
		{ItemKind: ItemKindStockItem, ItemId: "g2", QtyDelta: d("5"), TotalCost: d("5"), Status: RecordStatusActive},
	}
	qty, avg := ReplayStockItem(movements, "g1")
	if !qty.Equal(d("150")) || !avg.Round(2).Equal(d("53.33")) {
		t.Fatalf("replay = %s @ %s", qty, avg)
	}
}
