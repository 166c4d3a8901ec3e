package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mmdatafocus/roastery_backend/config"
	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/mmdatafocus/roastery_backend/store"
	"github.com/mmdatafocus/roastery_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Books owns the in-memory collections of the roastery and is the only writer.
// Every operation validates against memory, commits one change set through the
// store and applies it to memory only after the commit succeeded.
type Books struct {
	mu     sync.RWMutex
	store  store.Store
	logger *logrus.Logger

	// Now is the clock used for created/voided timestamps.
	Now func() time.Time
	// AllowNegativeStock disables the insufficient-stock checks.
	AllowNegativeStock bool

	settings    models.Settings
	stockItems  collection[models.StockItem]
	parties     collection[models.Party]
	recipes     collection[models.BlendRecipe]
	purchases   collection[models.PurchaseLog]
	productions collection[models.ProductionLog]
	orders      collection[models.Order]
	sales       collection[models.Sale]
	payments    collection[models.Payment]
	adjustments collection[models.StockAdjustment]
	movements   collection[models.InventoryMovement]
	ledger      collection[models.LedgerEntry]
}

func NewBooks(st store.Store, logger *logrus.Logger) *Books {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &Books{
		store:              st,
		logger:             logger,
		Now:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		AllowNegativeStock: config.AllowNegativeStock(),
		settings:           models.DefaultSettings(),
	}
}

// Load replaces memory with what the store holds.
func (b *Books) Load(ctx context.Context) error {
	var (
		settings    []models.Settings
		stockItems  []models.StockItem
		parties     []models.Party
		recipes     []models.BlendRecipe
		purchases   []models.PurchaseLog
		productions []models.ProductionLog
		orders      []models.Order
		sales       []models.Sale
		payments    []models.Payment
		adjustments []models.StockAdjustment
		movements   []models.InventoryMovement
		ledger      []models.LedgerEntry
	)
	for _, dest := range []interface{}{
		&settings, &stockItems, &parties, &recipes, &purchases, &productions,
		&orders, &sales, &payments, &adjustments, &movements, &ledger,
	} {
		if err := b.store.Select(ctx, dest); err != nil {
			config.LogError(b.logger, "workflow", "Load", "select collection", fmt.Sprintf("%T", dest), err)
			return err
		}
	}

	snap := &models.Snapshot{
		Settings:      models.DefaultSettings(),
		StockItems:    byCreated(stockItems, func(r models.StockItem) time.Time { return r.CreatedAt }),
		Parties:       byCreated(parties, func(r models.Party) time.Time { return r.CreatedAt }),
		Recipes:       byCreated(recipes, func(r models.BlendRecipe) time.Time { return r.CreatedAt }),
		Purchases:     byCreated(purchases, func(r models.PurchaseLog) time.Time { return r.CreatedAt }),
		Productions:   byCreated(productions, func(r models.ProductionLog) time.Time { return r.CreatedAt }),
		Orders:        byCreated(orders, func(r models.Order) time.Time { return r.CreatedAt }),
		Sales:         byCreated(sales, func(r models.Sale) time.Time { return r.CreatedAt }),
		Payments:      byCreated(payments, func(r models.Payment) time.Time { return r.CreatedAt }),
		Adjustments:   byCreated(adjustments, func(r models.StockAdjustment) time.Time { return r.CreatedAt }),
		Movements:     byCreated(movements, func(r models.InventoryMovement) time.Time { return r.CreatedAt }),
		LedgerEntries: byCreated(ledger, func(r models.LedgerEntry) time.Time { return r.CreatedAt }),
	}
	for _, s := range settings {
		if s.ID == models.SettingsId {
			snap.Settings = s
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.replaceMemory(snap)
	return nil
}

// replaceMemory loads the snapshot collections in the order given.
func (b *Books) replaceMemory(snap *models.Snapshot) {
	b.settings = snap.Settings
	b.stockItems.load(append([]models.StockItem(nil), snap.StockItems...))
	b.parties.load(append([]models.Party(nil), snap.Parties...))
	b.recipes.load(append([]models.BlendRecipe(nil), snap.Recipes...))
	b.purchases.load(append([]models.PurchaseLog(nil), snap.Purchases...))
	b.productions.load(append([]models.ProductionLog(nil), snap.Productions...))
	b.orders.load(append([]models.Order(nil), snap.Orders...))
	b.sales.load(append([]models.Sale(nil), snap.Sales...))
	b.payments.load(append([]models.Payment(nil), snap.Payments...))
	b.adjustments.load(append([]models.StockAdjustment(nil), snap.Adjustments...))
	b.movements.load(append([]models.InventoryMovement(nil), snap.Movements...))
	b.ledger.load(append([]models.LedgerEntry(nil), snap.LedgerEntries...))
}

// byCreated orders rows by creation time, then id, so replays are deterministic.
func byCreated[T models.Record](rows []T, created func(T) time.Time) []T {
	out := append([]T(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := created(out[i]), created(out[j])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return out[i].GetId() < out[j].GetId()
	})
	return out
}

// commit writes the change set and, on success, applies it to memory.
// Callers hold b.mu.
func (b *Books) commit(ctx context.Context, cs *store.ChangeSet) error {
	if err := b.store.Commit(ctx, cs); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	b.apply(cs)
	return nil
}

func (b *Books) apply(cs *store.ChangeSet) {
	for _, c := range cs.Changes {
		if c.Action == models.ChangeActionDelete {
			continue
		}
		switch r := c.Row.(type) {
		case *models.Settings:
			b.settings = *r
		case *models.StockItem:
			b.stockItems.put(*r)
		case *models.Party:
			b.parties.put(*r)
		case *models.BlendRecipe:
			b.recipes.put(*r)
		case *models.PurchaseLog:
			b.purchases.put(*r)
		case *models.ProductionLog:
			b.productions.put(*r)
		case *models.Order:
			b.orders.put(*r)
		case *models.Sale:
			b.sales.put(*r)
		case *models.Payment:
			b.payments.put(*r)
		case *models.StockAdjustment:
			b.adjustments.put(*r)
		case *models.InventoryMovement:
			b.movements.put(*r)
		case *models.LedgerEntry:
			b.ledger.put(*r)
		default:
			b.logger.WithFields(logrus.Fields{
				"field": "Books.apply",
				"table": c.Row.TableName(),
			}).Warn("change for unknown table not applied to memory")
		}
	}
}

func validateInput(input interface{}) error {
	if err := utils.ValidateStruct(input); err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, utils.ProcessValidationErrors(err))
	}
	return nil
}

func requirePositive(name string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than 0", models.ErrValidation, name)
	}
	return nil
}

func requireNotNegative(name string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", models.ErrValidation, name)
	}
	return nil
}

func notFound(table, id string) error {
	return fmt.Errorf("%w: %s %s", models.ErrNotFound, table, id)
}

// collection keeps rows in insertion order with an id index.
type collection[T models.Record] struct {
	rows  []T
	index map[string]int
}

func (c *collection[T]) load(rows []T) {
	c.rows = rows
	c.index = make(map[string]int, len(rows))
	for i, r := range rows {
		c.index[r.GetId()] = i
	}
}

func (c *collection[T]) get(id string) (T, bool) {
	if i, ok := c.index[id]; ok {
		return c.rows[i], true
	}
	var zero T
	return zero, false
}

func (c *collection[T]) put(row T) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[row.GetId()]; ok {
		c.rows[i] = row
		return
	}
	c.index[row.GetId()] = len(c.rows)
	c.rows = append(c.rows, row)
}

func (c *collection[T]) all() []T {
	return append([]T(nil), c.rows...)
}

func (c *collection[T]) filter(keep func(T) bool) []T {
	var out []T
	for _, r := range c.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
