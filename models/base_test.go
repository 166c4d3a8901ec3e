package models

import (
	"testing"
)

func TestJSONList_ValueScan(t *testing.T) {
	in := JSONList[OrderLine]{{Brand: "House", ProductName: "Espresso", PackSize: "250g", Quantity: d("2"), UnitPrice: d("12.5")}}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var out JSONList[OrderLine]
	if err := out.Scan(v); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(out) != 1 || out[0].FinishedGoodKey() != "House|Espresso|250g" || !out[0].LineTotal().Equal(d("25")) {
		t.Fatalf("unexpected scan result: %+v", out)
	}

	var empty JSONList[OrderLine]
	v, _ = empty.Value()
	if v != "[]" {
		t.Fatalf("nil list value = %v, want []", v)
	}
	if err := out.Scan(nil); err != nil || out != nil {
		t.Fatalf("scan nil: %v %v", out, err)
	}
}

func TestMovementReversal(t *testing.T) {
	orig := InventoryMovement{ID: "m1", ItemKind: ItemKindStockItem, ItemId: "g1", QtyDelta: d("-5"), TotalCost: d("-50"), UnitCost: d("10"), Reason: MovementReasonUsage, SourceType: SourceTypeProduction, SourceId: "p1", Status: RecordStatusActive}
	rev := orig.Reversal("m2", orig.EffectiveDate, "corr")
	if !rev.QtyDelta.Equal(d("5")) || !rev.TotalCost.Equal(d("50")) || rev.Reason != MovementReasonVoid || !rev.IsReversal {
		t.Fatalf("unexpected reversal: %+v", rev)
	}
	if rev.ReversesMovementId == nil || *rev.ReversesMovementId != "m1" || rev.SourceId != "p1" {
		t.Fatalf("reversal not linked: %+v", rev)
	}
	if rev.IsLive() {
		t.Fatalf("reversal must not count as live")
	}

	entry := LedgerEntry{ID: "e1", Direction: DirectionCredit, Amount: d("100"), Status: RecordStatusActive}
	if r := entry.Reversal("e2", entry.EntryDate, ""); r.Direction != DirectionDebit || !r.Amount.Equal(d("100")) {
		t.Fatalf("unexpected ledger reversal: %+v", r)
	}
}
