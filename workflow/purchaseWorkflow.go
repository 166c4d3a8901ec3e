package workflow

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/roastery_backend/models"
)

// RecordPurchase books stock bought into a stock item at its moving average,
// and what is owed to the supplier when one is given.
func (b *Books) RecordPurchase(ctx context.Context, input *models.NewPurchase) (*models.PurchaseLog, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := requirePositive("quantity", input.Quantity); err != nil {
		return nil, err
	}
	if err := requireNotNegative("total cost", input.TotalCost); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var supplierId *string
	if input.SupplierId != nil && *input.SupplierId != "" {
		supplier, ok := b.parties.get(*input.SupplierId)
		if !ok {
			return nil, notFound("party", *input.SupplierId)
		}
		if !supplier.Type.IsSupplier() {
			return nil, fmt.Errorf("%w: %s is not a supplier", models.ErrValidation, supplier.Name)
		}
		id := supplier.ID
		supplierId = &id
	}

	p := b.newPosting(ctx)
	unitCost := models.UnitCost(input.TotalCost, input.Quantity)
	purchase := &models.PurchaseLog{
		ID:            models.NewId(),
		StockItemId:   input.StockItemId,
		SupplierId:    supplierId,
		PurchaseDate:  input.PurchaseDate,
		Quantity:      input.Quantity,
		TotalCost:     input.TotalCost,
		UnitCost:      unitCost,
		InvoiceNumber: input.InvoiceNumber,
		Notes:         input.Notes,
		VoidInfo:      models.VoidInfo{Status: models.RecordStatusActive},
		CorrelationId: p.correlationId,
		CreatedAt:     p.now,
		UpdatedAt:     p.now,
	}
	p.cs.Insert(purchase)

	if _, err := p.stockMovement(input.StockItemId, input.Quantity, unitCost, input.TotalCost,
		models.MovementReasonPurchase, models.SourceTypePurchase, purchase.ID, input.PurchaseDate); err != nil {
		return nil, err
	}
	if purchase.SupplierId != nil && input.TotalCost.IsPositive() {
		item, _ := p.stockItem(input.StockItemId)
		p.ledgerEntry(*purchase.SupplierId, models.LedgerCategoryPurchase, models.DirectionDebit, input.TotalCost,
			models.SourceTypePurchase, purchase.ID, input.PurchaseDate, fmt.Sprintf("Purchase %s %s", input.Quantity.String(), item.Name))
	}

	if err := b.commit(ctx, p.finish()); err != nil {
		return nil, err
	}
	return purchase, nil
}

// VoidPurchase reverses the purchase movement and supplier entry. Rejected when the
// stock has already been consumed below the purchased quantity.
func (b *Books) VoidPurchase(ctx context.Context, id string, reason string) (*models.PurchaseLog, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.purchases.get(id)
	if !ok {
		return nil, notFound("purchase", id)
	}
	if current.IsVoided() {
		return nil, fmt.Errorf("%w: purchase %s", models.ErrAlreadyVoided, id)
	}

	p := b.newPosting(ctx)
	if _, err := p.reverseMovements(models.SourceTypePurchase, id); err != nil {
		return nil, err
	}
	p.reverseLedger(models.SourceTypePurchase, id)

	purchase := current
	purchase.MarkVoided(p.now, reason)
	purchase.UpdatedAt = p.now
	p.cs.Update(&purchase)

	if err := b.commit(ctx, p.finish()); err != nil {
		return nil, err
	}
	return &purchase, nil
}
