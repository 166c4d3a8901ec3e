package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGormStore(db, logrus.New())
}

func sampleItem(id string) *models.StockItem {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.StockItem{
		ID:          id,
		Kind:        models.StockItemKindGreenCoffee,
		Name:        "Ethiopia Guji",
		Unit:        "kg",
		Quantity:    decimal.NewFromInt(100),
		AverageCost: decimal.NewFromInt(50),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func countOutbox(t *testing.T, s *GormStore) int64 {
	t.Helper()
	var n int64
	if err := s.DB().Model(&models.OutboxRecord{}).Count(&n).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	return n
}

func TestGormStore_CommitWritesRowsAndOutbox(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	item := sampleItem("item-1")
	movement := &models.InventoryMovement{
		ID:            "mv-1",
		ItemKind:      models.ItemKindStockItem,
		ItemId:        item.ID,
		QtyDelta:      decimal.NewFromInt(100),
		Reason:        models.MovementReasonPurchase,
		SourceType:    models.SourceTypePurchase,
		SourceId:      "p-1",
		UnitCost:      decimal.NewFromInt(50),
		TotalCost:     decimal.NewFromInt(5000),
		Status:        models.RecordStatusActive,
		EffectiveDate: item.CreatedAt,
		CreatedAt:     item.CreatedAt,
	}
	cs := NewChangeSet("corr-1").Insert(item, movement)
	if err := s.Commit(ctx, cs); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var got models.StockItem
	if err := s.Get(ctx, "item-1", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Quantity.Equal(decimal.NewFromInt(100)) || got.Name != "Ethiopia Guji" {
		t.Fatalf("unexpected item: %+v", got)
	}

	var outbox []models.OutboxRecord
	if err := s.DB().Order("id").Find(&outbox).Error; err != nil {
		t.Fatalf("outbox: %v", err)
	}
	if len(outbox) != 2 {
		t.Fatalf("outbox rows = %d, want 2", len(outbox))
	}
	if outbox[0].EntityTable != "stock_items" || outbox[0].CorrelationId != "corr-1" || outbox[0].PublishStatus != models.OutboxStatusPending {
		t.Fatalf("unexpected outbox row: %+v", outbox[0])
	}
}

func TestGormStore_CommitIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Insert(ctx, sampleItem("item-1")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	before := countOutbox(t, s)

	// second insert of item-1 fails, so item-2 must not be written either
	cs := NewChangeSet("corr-2").Insert(sampleItem("item-2"), sampleItem("item-1"))
	err := s.Commit(ctx, cs)
	if !errors.Is(err, models.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	var n int64
	s.DB().Model(&models.StockItem{}).Count(&n)
	if n != 1 {
		t.Fatalf("stock items = %d, want 1", n)
	}
	if after := countOutbox(t, s); after != before {
		t.Fatalf("outbox grew from %d to %d on failed commit", before, after)
	}
}

func TestGormStore_UpdateUpsertDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	item := sampleItem("item-1")
	if err := s.Insert(ctx, item); err != nil {
		t.Fatalf("insert: %v", err)
	}
	item.Quantity = decimal.Zero
	item.IsActive = false
	if err := s.Update(ctx, item); err != nil {
		t.Fatalf("update: %v", err)
	}
	var got models.StockItem
	if err := s.Get(ctx, item.ID, &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Quantity.IsZero() || got.IsActive {
		t.Fatalf("update did not write zero values: %+v", got)
	}

	settings := models.DefaultSettings()
	if err := s.Upsert(ctx, &settings); err != nil {
		t.Fatalf("upsert insert: %v", err)
	}
	settings.BusinessName = "Bean There"
	if err := s.Upsert(ctx, &settings); err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	var gotSettings models.Settings
	if err := s.Get(ctx, models.SettingsId, &gotSettings); err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if gotSettings.BusinessName != "Bean There" {
		t.Fatalf("business name = %q", gotSettings.BusinessName)
	}

	if err := s.Delete(ctx, item); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Get(ctx, item.ID, &got); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGormStore_Replace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Insert(ctx, sampleItem("old")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows := []models.Record{sampleItem("new-1"), sampleItem("new-2")}
	if err := s.Replace(ctx, []string{"stock_items"}, rows, "import-1"); err != nil {
		t.Fatalf("replace: %v", err)
	}

	var items []models.StockItem
	if err := s.Select(ctx, &items); err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	for _, it := range items {
		if it.ID == "old" {
			t.Fatalf("old row survived replace")
		}
	}

	if err := s.Replace(ctx, []string{"users"}, nil, ""); err == nil {
		t.Fatalf("expected reset of users to be rejected")
	}
}

func TestGormStore_JSONColumns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	recipe := &models.BlendRecipe{
		ID:   "r-1",
		Name: "House Blend",
		Ingredients: models.JSONList[models.BlendIngredient]{
			{StockItemId: "a", Ratio: decimal.NewFromInt(60)},
			{StockItemId: "b", Ratio: decimal.NewFromInt(40)},
		},
		IsActive: true,
	}
	if err := s.Insert(ctx, recipe); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got models.BlendRecipe
	if err := s.Get(ctx, "r-1", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Ingredients) != 2 || !got.Ingredients[0].Ratio.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected ingredients: %+v", got.Ingredients)
	}
}
