package workflow

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/roastery_backend/models"
)

// RecordAdjustment corrects a stock count. The difference is costed at the current
// average, so the average itself does not move.
func (b *Books) RecordAdjustment(ctx context.Context, input *models.NewAdjustment) (*models.StockAdjustment, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.QtyDelta.IsZero() {
		return nil, fmt.Errorf("%w: adjustment quantity must not be 0", models.ErrValidation)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.newPosting(ctx)
	item, err := p.stockItem(input.StockItemId)
	if err != nil {
		return nil, err
	}
	unitCost := item.AverageCost
	totalCost := models.RoundCost(unitCost.Mul(input.QtyDelta))
	adjustment := &models.StockAdjustment{
		ID:             models.NewId(),
		StockItemId:    item.ID,
		AdjustmentDate: input.AdjustmentDate,
		QtyDelta:       input.QtyDelta,
		UnitCost:       unitCost,
		TotalCost:      totalCost,
		Reason:         input.Reason,
		VoidInfo:       models.VoidInfo{Status: models.RecordStatusActive},
		CorrelationId:  p.correlationId,
		CreatedAt:      p.now,
		UpdatedAt:      p.now,
	}
	p.cs.Insert(adjustment)
	if _, err := p.stockMovement(item.ID, input.QtyDelta, unitCost, totalCost,
		models.MovementReasonAdjustment, models.SourceTypeAdjustment, adjustment.ID, input.AdjustmentDate); err != nil {
		return nil, err
	}

	if err := b.commit(ctx, p.finish()); err != nil {
		return nil, err
	}
	return adjustment, nil
}

func (b *Books) VoidAdjustment(ctx context.Context, id string, reason string) (*models.StockAdjustment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.adjustments.get(id)
	if !ok {
		return nil, notFound("adjustment", id)
	}
	if current.IsVoided() {
		return nil, fmt.Errorf("%w: adjustment %s", models.ErrAlreadyVoided, id)
	}

	p := b.newPosting(ctx)
	if _, err := p.reverseMovements(models.SourceTypeAdjustment, id); err != nil {
		return nil, err
	}
	adjustment := current
	adjustment.MarkVoided(p.now, reason)
	adjustment.UpdatedAt = p.now
	p.cs.Update(&adjustment)

	if err := b.commit(ctx, p.finish()); err != nil {
		return nil, err
	}
	return &adjustment, nil
}
