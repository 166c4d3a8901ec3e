package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/shopspring/decimal"
)

func (b *Books) CreateOrder(ctx context.Context, input *models.NewOrder) (*models.Order, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	lines := make(models.JSONList[models.OrderLine], 0, len(input.Lines))
	total := decimal.Zero
	for _, l := range input.Lines {
		if err := requirePositive("line quantity", l.Quantity); err != nil {
			return nil, err
		}
		if err := requireNotNegative("unit price", l.UnitPrice); err != nil {
			return nil, err
		}
		l.Brand = strings.TrimSpace(l.Brand)
		l.ProductName = strings.TrimSpace(l.ProductName)
		l.PackSize = strings.TrimSpace(l.PackSize)
		lines = append(lines, l)
		total = total.Add(l.LineTotal())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	customer, ok := b.parties.get(input.CustomerId)
	if !ok {
		return nil, notFound("party", input.CustomerId)
	}
	if !customer.Type.IsCustomer() {
		return nil, fmt.Errorf("%w: %s is not a customer", models.ErrValidation, customer.Name)
	}

	p := b.newPosting(ctx)
	order := &models.Order{
		ID:                models.NewId(),
		CustomerId:        customer.ID,
		OrderDate:         input.OrderDate,
		Lines:             lines,
		Total:             total,
		FulfillmentStatus: models.FulfillmentStatusOpen,
		Notes:             input.Notes,
		VoidInfo:          models.VoidInfo{Status: models.RecordStatusActive},
		CorrelationId:     p.correlationId,
		CreatedAt:         p.now,
		UpdatedAt:         p.now,
	}
	p.cs.Insert(order)
	if err := b.commit(ctx, p.cs); err != nil {
		return nil, err
	}
	return order, nil
}

// ShipOrder ships every line of an open order: it books the sale at the all-time
// average production cost of each finished good, takes the packs out of stock and
// posts revenue and COGS against the customer.
func (b *Books) ShipOrder(ctx context.Context, orderId string, input *models.ShipOrder) (*models.Sale, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.orders.get(orderId)
	if !ok {
		return nil, notFound("order", orderId)
	}
	if current.IsVoided() {
		return nil, fmt.Errorf("%w: order %s", models.ErrAlreadyVoided, orderId)
	}
	if current.FulfillmentStatus == models.FulfillmentStatusShipped {
		return nil, fmt.Errorf("%w: order %s is already shipped", models.ErrValidation, orderId)
	}

	p := b.newPosting(ctx)
	sale := &models.Sale{
		ID:            models.NewId(),
		OrderId:       current.ID,
		CustomerId:    current.CustomerId,
		SaleDate:      input.ShipDate,
		VoidInfo:      models.VoidInfo{Status: models.RecordStatusActive},
		CorrelationId: p.correlationId,
		CreatedAt:     p.now,
		UpdatedAt:     p.now,
	}

	revenue := decimal.Zero
	cogs := decimal.Zero
	lines := make(models.JSONList[models.SaleLine], 0, len(current.Lines))
	for _, l := range current.Lines {
		unitCost := models.AverageProductionCost(b.movements.rows, l.FinishedGoodKey())
		lineCost := models.RoundCost(unitCost.Mul(l.Quantity))
		lineRevenue := l.LineTotal()
		if _, err := p.goodsMovement(l.Brand, l.ProductName, l.PackSize, l.Quantity.Neg(), unitCost, lineCost.Neg(),
			models.MovementReasonSale, models.SourceTypeSale, sale.ID, input.ShipDate); err != nil {
			return nil, err
		}
		lines = append(lines, models.SaleLine{
			Brand:       l.Brand,
			ProductName: l.ProductName,
			PackSize:    l.PackSize,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			UnitCost:    unitCost,
			Revenue:     lineRevenue,
			Cost:        lineCost,
		})
		revenue = revenue.Add(lineRevenue)
		cogs = cogs.Add(lineCost)
	}
	sale.Lines = lines
	sale.Revenue = revenue
	sale.COGS = cogs
	p.cs.Insert(sale)

	if revenue.IsPositive() {
		p.ledgerEntry(sale.CustomerId, models.LedgerCategorySale, models.DirectionCredit, revenue,
			models.SourceTypeSale, sale.ID, input.ShipDate, "Sale for order "+current.ID)
	}
	if cogs.IsPositive() {
		p.ledgerEntry(sale.CustomerId, models.LedgerCategoryCOGS, models.DirectionDebit, cogs,
			models.SourceTypeSale, sale.ID, input.ShipDate, "COGS for order "+current.ID)
	}

	order := current
	shippedAt := input.ShipDate
	saleId := sale.ID
	order.FulfillmentStatus = models.FulfillmentStatusShipped
	order.ShippedAt = &shippedAt
	order.SaleId = &saleId
	order.UpdatedAt = p.now
	p.cs.Update(&order)

	if err := b.commit(ctx, p.finish()); err != nil {
		return nil, err
	}
	return sale, nil
}

// voidSale reverses a sale's packs and ledger entries and reopens its order.
func (b *Books) voidSale(p *posting, current models.Sale, reason string) (*models.Sale, *models.Order, error) {
	if _, err := p.reverseMovements(models.SourceTypeSale, current.ID); err != nil {
		return nil, nil, err
	}
	p.reverseLedger(models.SourceTypeSale, current.ID)

	sale := current
	sale.MarkVoided(p.now, reason)
	sale.UpdatedAt = p.now
	p.cs.Update(&sale)

	var reopened *models.Order
	if order, ok := b.orders.get(current.OrderId); ok && order.SaleId != nil && *order.SaleId == current.ID {
		order.FulfillmentStatus = models.FulfillmentStatusOpen
		order.ShippedAt = nil
		order.SaleId = nil
		order.UpdatedAt = p.now
		reopened = &order
	}
	return &sale, reopened, nil
}

// VoidSale undoes a shipment. The order goes back to Open and can be shipped again.
func (b *Books) VoidSale(ctx context.Context, id string, reason string) (*models.Sale, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.sales.get(id)
	if !ok {
		return nil, notFound("sale", id)
	}
	if current.IsVoided() {
		return nil, fmt.Errorf("%w: sale %s", models.ErrAlreadyVoided, id)
	}

	p := b.newPosting(ctx)
	sale, order, err := b.voidSale(p, current, reason)
	if err != nil {
		return nil, err
	}
	if order != nil {
		p.cs.Update(order)
	}
	if err := b.commit(ctx, p.finish()); err != nil {
		return nil, err
	}
	return sale, nil
}

// VoidOrder cancels an order. A shipped order has its sale voided in the same commit.
func (b *Books) VoidOrder(ctx context.Context, id string, reason string) (*models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.orders.get(id)
	if !ok {
		return nil, notFound("order", id)
	}
	if current.IsVoided() {
		return nil, fmt.Errorf("%w: order %s", models.ErrAlreadyVoided, id)
	}

	p := b.newPosting(ctx)
	order := current
	if current.SaleId != nil {
		if sale, ok := b.sales.get(*current.SaleId); ok && !sale.IsVoided() {
			if _, reopened, err := b.voidSale(p, sale, reason); err != nil {
				return nil, err
			} else if reopened != nil {
				order = *reopened
			}
		}
	}
	order.MarkVoided(p.now, reason)
	order.UpdatedAt = p.now
	p.cs.Update(&order)

	if err := b.commit(ctx, p.finish()); err != nil {
		return nil, err
	}
	return &order, nil
}
