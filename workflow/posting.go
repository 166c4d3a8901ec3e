package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/mmdatafocus/roastery_backend/store"
	"github.com/mmdatafocus/roastery_backend/utils"
	"github.com/shopspring/decimal"
)

// posting accumulates the facts of one operation on working copies.
// Nothing touches Books memory until Books.commit applies the change set.
type posting struct {
	b             *Books
	cs            *store.ChangeSet
	now           time.Time
	correlationId string

	items     map[string]*models.StockItem
	itemOrder []string
	// finished-good quantity posted so far, per key
	goods map[string]decimal.Decimal
}

func (b *Books) newPosting(ctx context.Context) *posting {
	correlationId := utils.CorrelationIdFromContextOrNew(ctx)
	return &posting{
		b:             b,
		cs:            store.NewChangeSet(correlationId),
		now:           b.Now(),
		correlationId: correlationId,
		items:         make(map[string]*models.StockItem),
		goods:         make(map[string]decimal.Decimal),
	}
}

// stockItem returns the working copy of a stock item.
func (p *posting) stockItem(id string) (*models.StockItem, error) {
	if item, ok := p.items[id]; ok {
		return item, nil
	}
	current, ok := p.b.stockItems.get(id)
	if !ok {
		return nil, notFound("stock item", id)
	}
	item := current
	p.items[id] = &item
	p.itemOrder = append(p.itemOrder, id)
	return &item, nil
}

// stockMovement posts qty (signed) of a stock item costing totalCost (signed with qty)
// and moves its quantity and average cost.
func (p *posting) stockMovement(itemId string, qty, unitCost, totalCost decimal.Decimal, reason models.MovementReason, sourceType models.SourceType, sourceId string, date time.Time) (*models.InventoryMovement, error) {
	item, err := p.stockItem(itemId)
	if err != nil {
		return nil, err
	}
	if err := p.checkStock(item, qty); err != nil {
		return nil, err
	}
	m := &models.InventoryMovement{
		ID:            models.NewId(),
		ItemKind:      models.ItemKindStockItem,
		ItemId:        itemId,
		QtyDelta:      qty,
		Reason:        reason,
		SourceType:    sourceType,
		SourceId:      sourceId,
		UnitCost:      unitCost,
		TotalCost:     totalCost,
		Status:        models.RecordStatusActive,
		EffectiveDate: date,
		CorrelationId: p.correlationId,
		CreatedAt:     p.now,
	}
	p.applyToItem(item, m)
	p.cs.Insert(m)
	return m, nil
}

func (p *posting) applyToItem(item *models.StockItem, m *models.InventoryMovement) {
	item.Quantity, item.AverageCost = models.MovingAverage(item.Quantity, item.AverageCost, m.QtyDelta, m.TotalCost)
	item.UpdatedAt = p.now
}

func (p *posting) checkStock(item *models.StockItem, qty decimal.Decimal) error {
	if p.b.AllowNegativeStock || !qty.IsNegative() {
		return nil
	}
	if item.Quantity.Add(qty).IsNegative() {
		return fmt.Errorf("%w: %s has %s %s, needs %s", models.ErrInsufficientStock, item.Name, item.Quantity.String(), item.Unit, qty.Neg().String())
	}
	return nil
}

// checkValue rejects a movement that would leave stock on hand carrying a negative value.
func (p *posting) checkValue(item *models.StockItem, qty, cost decimal.Decimal) error {
	if p.b.AllowNegativeStock {
		return nil
	}
	newQty := item.Quantity.Add(qty)
	if !newQty.IsPositive() {
		return nil
	}
	value := item.Quantity.Mul(item.AverageCost).Add(cost)
	if value.Round(2).IsNegative() {
		return fmt.Errorf("%w: %s would keep %s %s valued at %s", models.ErrInsufficientStock, item.Name, newQty.String(), item.Unit, value.Round(2).String())
	}
	return nil
}

// goodsOnHand is the derived on-hand of a finished good including this posting.
func (p *posting) goodsOnHand(key string) decimal.Decimal {
	return models.FinishedGoodOnHand(p.b.movements.rows, key).Add(p.goods[key])
}

func (p *posting) checkGoods(key string, qty decimal.Decimal) error {
	if p.b.AllowNegativeStock || !qty.IsNegative() {
		return nil
	}
	onHand := p.goodsOnHand(key)
	if onHand.Add(qty).IsNegative() {
		return fmt.Errorf("%w: %s has %s packs, needs %s", models.ErrInsufficientStock, key, onHand.String(), qty.Neg().String())
	}
	return nil
}

func (p *posting) goodsMovement(brand, productName, packSize string, qty, unitCost, totalCost decimal.Decimal, reason models.MovementReason, sourceType models.SourceType, sourceId string, date time.Time) (*models.InventoryMovement, error) {
	key := models.FinishedGoodKey(brand, productName, packSize)
	if err := p.checkGoods(key, qty); err != nil {
		return nil, err
	}
	m := &models.InventoryMovement{
		ID:            models.NewId(),
		ItemKind:      models.ItemKindFinishedGood,
		ItemId:        key,
		Brand:         brand,
		ProductName:   productName,
		PackSize:      packSize,
		QtyDelta:      qty,
		Reason:        reason,
		SourceType:    sourceType,
		SourceId:      sourceId,
		UnitCost:      unitCost,
		TotalCost:     totalCost,
		Status:        models.RecordStatusActive,
		EffectiveDate: date,
		CorrelationId: p.correlationId,
		CreatedAt:     p.now,
	}
	p.goods[key] = p.goods[key].Add(qty)
	p.cs.Insert(m)
	return m, nil
}

func (p *posting) ledgerEntry(partyId string, category models.LedgerCategory, direction models.Direction, amount decimal.Decimal, sourceType models.SourceType, sourceId string, date time.Time, memo string) *models.LedgerEntry {
	e := &models.LedgerEntry{
		ID:            models.NewId(),
		PartyId:       partyId,
		Category:      category,
		Direction:     direction,
		Amount:        amount,
		SourceType:    sourceType,
		SourceId:      sourceId,
		Status:        models.RecordStatusActive,
		EntryDate:     date,
		Memo:          memo,
		CorrelationId: p.correlationId,
		CreatedAt:     p.now,
	}
	p.cs.Insert(e)
	return e
}

// reverseMovements compensates every live movement of the source. Movements already
// reversed, and reversals themselves, are skipped, so a second call posts nothing.
func (p *posting) reverseMovements(sourceType models.SourceType, sourceId string) (int, error) {
	originals := p.b.movements.filter(func(m models.InventoryMovement) bool {
		return m.SourceType == sourceType && m.SourceId == sourceId && m.IsLive()
	})
	for _, orig := range originals {
		rev := orig.Reversal(models.NewId(), p.now, p.correlationId)
		switch orig.ItemKind {
		case models.ItemKindStockItem:
			item, err := p.stockItem(orig.ItemId)
			if err != nil {
				return 0, err
			}
			if err := p.checkStock(item, rev.QtyDelta); err != nil {
				return 0, err
			}
			if err := p.checkValue(item, rev.QtyDelta, rev.TotalCost); err != nil {
				return 0, err
			}
			p.applyToItem(item, &rev)
		case models.ItemKindFinishedGood:
			if err := p.checkGoods(orig.ItemId, rev.QtyDelta); err != nil {
				return 0, err
			}
			p.goods[orig.ItemId] = p.goods[orig.ItemId].Add(rev.QtyDelta)
		}

		marked := orig
		marked.ReversedByMovementId = &rev.ID
		p.cs.Insert(&rev)
		p.cs.Update(&marked)
	}
	return len(originals), nil
}

// reverseLedger is the ledger counterpart of reverseMovements.
func (p *posting) reverseLedger(sourceType models.SourceType, sourceId string) int {
	originals := p.b.ledger.filter(func(e models.LedgerEntry) bool {
		return e.SourceType == sourceType && e.SourceId == sourceId && e.IsLive()
	})
	for _, orig := range originals {
		rev := orig.Reversal(models.NewId(), p.now, p.correlationId)
		marked := orig
		marked.ReversedByEntryId = &rev.ID
		p.cs.Insert(&rev)
		p.cs.Update(&marked)
	}
	return len(originals)
}

// finish adds the touched stock items to the change set.
func (p *posting) finish() *store.ChangeSet {
	for _, id := range p.itemOrder {
		p.cs.Update(p.items[id])
	}
	return p.cs
}

// VoidInventoryMovementsBySource appends compensating movements for every live
// movement of the source and returns how many were compensated.
func (b *Books) VoidInventoryMovementsBySource(ctx context.Context, sourceType models.SourceType, sourceId string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.newPosting(ctx)
	n, err := p.reverseMovements(sourceType, sourceId)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := b.commit(ctx, p.finish()); err != nil {
		return 0, err
	}
	return n, nil
}

// VoidLedgerEntriesBySource appends compensating entries for every live ledger
// entry of the source and returns how many were compensated.
func (b *Books) VoidLedgerEntriesBySource(ctx context.Context, sourceType models.SourceType, sourceId string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.newPosting(ctx)
	n := p.reverseLedger(sourceType, sourceId)
	if n == 0 {
		return 0, nil
	}
	if err := b.commit(ctx, p.finish()); err != nil {
		return 0, err
	}
	return n, nil
}
