package workflow

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/roastery_backend/config"
	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/mmdatafocus/roastery_backend/utils"
)

// Export copies every collection plus settings into a snapshot.
func (b *Books) Export() *models.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &models.Snapshot{
		Version:       models.SnapshotVersion,
		ExportedAt:    b.Now(),
		Settings:      b.settings,
		StockItems:    b.stockItems.all(),
		Parties:       b.parties.all(),
		Recipes:       b.recipes.all(),
		Purchases:     b.purchases.all(),
		Productions:   b.productions.all(),
		Orders:        b.orders.all(),
		Sales:         b.sales.all(),
		Payments:      b.payments.all(),
		Adjustments:   b.adjustments.all(),
		Movements:     b.movements.all(),
		LedgerEntries: b.ledger.all(),
	}
}

// Import wipes every book table and inserts the snapshot in one transaction.
// Memory is replaced only once the store accepted it.
func (b *Books) Import(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: empty snapshot", models.ErrValidation)
	}
	if snap.Version != models.SnapshotVersion {
		return fmt.Errorf("%w: unsupported snapshot version %d", models.ErrValidation, snap.Version)
	}
	if snap.Settings.ID == "" {
		snap.Settings = models.DefaultSettings()
	}
	if snap.Settings.ID != models.SettingsId {
		return fmt.Errorf("%w: settings id %q", models.ErrValidation, snap.Settings.ID)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	correlationId := utils.CorrelationIdFromContextOrNew(ctx)
	if err := b.store.Replace(ctx, models.BookTables(), snap.Records(), correlationId); err != nil {
		config.LogError(b.logger, "workflow", "Import", "replace tables", snap.Version, err)
		return fmt.Errorf("import: %w", err)
	}
	b.replaceMemory(snap)
	return nil
}
