package models

import (
	"gorm.io/gorm"
)

func AllModels() []interface{} {
	return []interface{}{
		&Settings{}, &StockItem{}, &Party{}, &BlendRecipe{},
		&PurchaseLog{}, &ProductionLog{}, &Order{}, &Sale{}, &Payment{}, &StockAdjustment{},
		&InventoryMovement{}, &LedgerEntry{},
		&User{}, &OutboxRecord{},
	}
}

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
