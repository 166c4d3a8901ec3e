package models

import "time"

const SnapshotVersion = 1

// Snapshot is the full JSON backup: every collection plus settings.
type Snapshot struct {
	Version       int                 `json:"version"`
	ExportedAt    time.Time           `json:"exported_at"`
	Settings      Settings            `json:"settings"`
	StockItems    []StockItem         `json:"stock_items"`
	Parties       []Party             `json:"parties"`
	Recipes       []BlendRecipe       `json:"recipes"`
	Purchases     []PurchaseLog       `json:"purchases"`
	Productions   []ProductionLog     `json:"productions"`
	Orders        []Order             `json:"orders"`
	Sales         []Sale              `json:"sales"`
	Payments      []Payment           `json:"payments"`
	Adjustments   []StockAdjustment   `json:"adjustments"`
	Movements     []InventoryMovement `json:"movements"`
	LedgerEntries []LedgerEntry       `json:"ledger_entries"`
}

// BookTables lists every table a snapshot covers, in insert order.
func BookTables() []string {
	return []string{
		Settings{}.TableName(),
		StockItem{}.TableName(),
		Party{}.TableName(),
		BlendRecipe{}.TableName(),
		PurchaseLog{}.TableName(),
		ProductionLog{}.TableName(),
		Order{}.TableName(),
		Sale{}.TableName(),
		Payment{}.TableName(),
		StockAdjustment{}.TableName(),
		InventoryMovement{}.TableName(),
		LedgerEntry{}.TableName(),
	}
}

// Records flattens the snapshot in BookTables order.
func (s *Snapshot) Records() []Record {
	out := []Record{&s.Settings}
	for i := range s.StockItems {
		out = append(out, &s.StockItems[i])
	}
	for i := range s.Parties {
		out = append(out, &s.Parties[i])
	}
	for i := range s.Recipes {
		out = append(out, &s.Recipes[i])
	}
	for i := range s.Purchases {
		out = append(out, &s.Purchases[i])
	}
	for i := range s.Productions {
		out = append(out, &s.Productions[i])
	}
	for i := range s.Orders {
		out = append(out, &s.Orders[i])
	}
	for i := range s.Sales {
		out = append(out, &s.Sales[i])
	}
	for i := range s.Payments {
		out = append(out, &s.Payments[i])
	}
	for i := range s.Adjustments {
		out = append(out, &s.Adjustments[i])
	}
	for i := range s.Movements {
		out = append(out, &s.Movements[i])
	}
	for i := range s.LedgerEntries {
		out = append(out, &s.LedgerEntries[i])
	}
	return out
}
