package workflow

import (
	"sort"
	"time"

	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/shopspring/decimal"
)

func (b *Books) Settings() models.Settings {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.settings
}

func (b *Books) StockItems() []models.StockItem {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stockItems.all()
}

func (b *Books) StockItem(id string) (models.StockItem, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	item, ok := b.stockItems.get(id)
	if !ok {
		return item, notFound("stock item", id)
	}
	return item, nil
}

func (b *Books) Parties() []models.Party {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.parties.all()
}

func (b *Books) Party(id string) (models.Party, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	party, ok := b.parties.get(id)
	if !ok {
		return party, notFound("party", id)
	}
	return party, nil
}

func (b *Books) Recipes() []models.BlendRecipe {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.recipes.all()
}

func (b *Books) Purchases() []models.PurchaseLog {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.purchases.all()
}

func (b *Books) Productions() []models.ProductionLog {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.productions.all()
}

func (b *Books) Orders() []models.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.orders.all()
}

func (b *Books) Order(id string) (models.Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	order, ok := b.orders.get(id)
	if !ok {
		return order, notFound("order", id)
	}
	return order, nil
}

func (b *Books) Sales() []models.Sale {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sales.all()
}

func (b *Books) Payments() []models.Payment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.payments.all()
}

func (b *Books) Adjustments() []models.StockAdjustment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.adjustments.all()
}

type MovementFilter struct {
	ItemId     string
	SourceType models.SourceType
	SourceId   string
	From       *time.Time
	To         *time.Time
}

func (f MovementFilter) match(m models.InventoryMovement) bool {
	if f.ItemId != "" && m.ItemId != f.ItemId {
		return false
	}
	if f.SourceType != "" && m.SourceType != f.SourceType {
		return false
	}
	if f.SourceId != "" && m.SourceId != f.SourceId {
		return false
	}
	if f.From != nil && m.EffectiveDate.Before(*f.From) {
		return false
	}
	if f.To != nil && m.EffectiveDate.After(*f.To) {
		return false
	}
	return true
}

func (b *Books) Movements(filter MovementFilter) []models.InventoryMovement {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.movements.filter(filter.match)
}

// LedgerEntries lists a party's entries; an empty partyId lists all.
func (b *Books) LedgerEntries(partyId string) []models.LedgerEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ledger.filter(func(e models.LedgerEntry) bool {
		return partyId == "" || e.PartyId == partyId
	})
}

// OnHand is the materialised quantity of a stock item.
func (b *Books) OnHand(stockItemId string) (decimal.Decimal, error) {
	item, err := b.StockItem(stockItemId)
	if err != nil {
		return decimal.Zero, err
	}
	return item.Quantity, nil
}

type FinishedGoodStock struct {
	Key         string          `json:"key"`
	Brand       string          `json:"brand"`
	ProductName string          `json:"product_name"`
	PackSize    string          `json:"pack_size"`
	OnHand      decimal.Decimal `json:"on_hand"`
	AverageCost decimal.Decimal `json:"average_cost"`
	Value       decimal.Decimal `json:"value"`
}

// FinishedGoods derives on-hand packs per finished good from movements.
func (b *Books) FinishedGoods() []FinishedGoodStock {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.finishedGoods()
}

func (b *Books) finishedGoods() []FinishedGoodStock {
	byKey := make(map[string]*FinishedGoodStock)
	var keys []string
	for _, m := range b.movements.rows {
		if m.ItemKind != models.ItemKindFinishedGood {
			continue
		}
		if _, ok := byKey[m.ItemId]; !ok {
			byKey[m.ItemId] = &FinishedGoodStock{Key: m.ItemId, Brand: m.Brand, ProductName: m.ProductName, PackSize: m.PackSize}
			keys = append(keys, m.ItemId)
		}
	}
	sort.Strings(keys)

	out := make([]FinishedGoodStock, 0, len(keys))
	for _, key := range keys {
		fg := byKey[key]
		fg.OnHand = models.FinishedGoodOnHand(b.movements.rows, key)
		fg.AverageCost = models.AverageProductionCost(b.movements.rows, key)
		fg.Value = fg.OnHand.Mul(fg.AverageCost).Round(2)
		out = append(out, *fg)
	}
	return out
}

func (b *Books) PartyBalance(partyId string) (decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	party, ok := b.parties.get(partyId)
	if !ok {
		return decimal.Zero, notFound("party", partyId)
	}
	return models.PartyBalance(party, b.ledger.rows), nil
}

type PartyBalanceRow struct {
	PartyId string           `json:"party_id"`
	Name    string           `json:"name"`
	Type    models.PartyType `json:"type"`
	Balance decimal.Decimal  `json:"balance"`
}

func (b *Books) PartyBalances() []PartyBalanceRow {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]PartyBalanceRow, 0, len(b.parties.rows))
	for _, party := range b.parties.rows {
		out = append(out, PartyBalanceRow{
			PartyId: party.ID,
			Name:    party.Name,
			Type:    party.Type,
			Balance: models.PartyBalance(party, b.ledger.rows),
		})
	}
	return out
}

// LowStock lists active items at or below their reorder level.
func (b *Books) LowStock() []models.StockItem {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stockItems.filter(func(s models.StockItem) bool {
		return s.IsActive && s.IsLow()
	})
}

type ItemValuation struct {
	StockItemId string               `json:"stock_item_id"`
	Name        string               `json:"name"`
	Kind        models.StockItemKind `json:"kind"`
	Unit        string               `json:"unit"`
	Quantity    decimal.Decimal      `json:"quantity"`
	AverageCost decimal.Decimal      `json:"average_cost"`
	Value       decimal.Decimal      `json:"value"`
}

type Valuation struct {
	AsOf               time.Time           `json:"as_of"`
	Items              []ItemValuation     `json:"items"`
	FinishedGoods      []FinishedGoodStock `json:"finished_goods"`
	StockTotal         decimal.Decimal     `json:"stock_total"`
	FinishedGoodsTotal decimal.Decimal     `json:"finished_goods_total"`
	Total              decimal.Decimal     `json:"total"`
}

// Valuation values stock items at their moving average and finished goods at
// their average production cost.
func (b *Books) Valuation() Valuation {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v := Valuation{AsOf: b.Now(), StockTotal: decimal.Zero, FinishedGoodsTotal: decimal.Zero}
	for _, item := range b.stockItems.rows {
		value := item.CarryingValue()
		v.Items = append(v.Items, ItemValuation{
			StockItemId: item.ID,
			Name:        item.Name,
			Kind:        item.Kind,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
			AverageCost: item.AverageCost,
			Value:       value,
		})
		v.StockTotal = v.StockTotal.Add(value)
	}
	v.FinishedGoods = b.finishedGoods()
	for _, fg := range v.FinishedGoods {
		v.FinishedGoodsTotal = v.FinishedGoodsTotal.Add(fg.Value)
	}
	v.Total = v.StockTotal.Add(v.FinishedGoodsTotal)
	return v
}

// StockDrift reports a stock item whose stored quantity or average disagrees with
// a replay of its movements.
type StockDrift struct {
	StockItemId     string          `json:"stock_item_id"`
	Name            string          `json:"name"`
	StoredQuantity  decimal.Decimal `json:"stored_quantity"`
	DerivedQuantity decimal.Decimal `json:"derived_quantity"`
	StoredAverage   decimal.Decimal `json:"stored_average"`
	DerivedAverage  decimal.Decimal `json:"derived_average"`
}

// averageTolerance absorbs rounding of the average at each step.
var averageTolerance = decimal.New(1, -4)

func (b *Books) VerifyStock() []StockDrift {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var drifts []StockDrift
	for _, item := range b.stockItems.rows {
		qty, avg := models.ReplayStockItem(b.movements.rows, item.ID)
		if qty.Equal(item.Quantity) && avg.Sub(item.AverageCost).Abs().LessThanOrEqual(averageTolerance) {
			continue
		}
		drifts = append(drifts, StockDrift{
			StockItemId:     item.ID,
			Name:            item.Name,
			StoredQuantity:  item.Quantity,
			DerivedQuantity: qty,
			StoredAverage:   item.AverageCost,
			DerivedAverage:  avg,
		})
	}
	return drifts
}

// PeriodSummary totals active transactions dated within [From, To).
type PeriodSummary struct {
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	PurchaseCount    int             `json:"purchase_count"`
	PurchaseTotal    decimal.Decimal `json:"purchase_total"`
	ProductionCount  int             `json:"production_count"`
	PacksProduced    decimal.Decimal `json:"packs_produced"`
	ProductionCost   decimal.Decimal `json:"production_cost"`
	SaleCount        int             `json:"sale_count"`
	Revenue          decimal.Decimal `json:"revenue"`
	COGS             decimal.Decimal `json:"cogs"`
	GrossProfit      decimal.Decimal `json:"gross_profit"`
	PaymentsReceived decimal.Decimal `json:"payments_received"`
	PaymentsMade     decimal.Decimal `json:"payments_made"`
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func (b *Books) Summary(from, to time.Time) PeriodSummary {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := PeriodSummary{
		From: from, To: to,
		PurchaseTotal: decimal.Zero, PacksProduced: decimal.Zero, ProductionCost: decimal.Zero,
		Revenue: decimal.Zero, COGS: decimal.Zero, PaymentsReceived: decimal.Zero, PaymentsMade: decimal.Zero,
	}
	for _, p := range b.purchases.rows {
		if !p.IsVoided() && within(p.PurchaseDate, from, to) {
			s.PurchaseCount++
			s.PurchaseTotal = s.PurchaseTotal.Add(p.TotalCost)
		}
	}
	for _, p := range b.productions.rows {
		if !p.IsVoided() && within(p.ProductionDate, from, to) {
			s.ProductionCount++
			s.PacksProduced = s.PacksProduced.Add(p.PackCount)
			s.ProductionCost = s.ProductionCost.Add(p.TotalCost)
		}
	}
	for _, sale := range b.sales.rows {
		if !sale.IsVoided() && within(sale.SaleDate, from, to) {
			s.SaleCount++
			s.Revenue = s.Revenue.Add(sale.Revenue)
			s.COGS = s.COGS.Add(sale.COGS)
		}
	}
	for _, p := range b.payments.rows {
		if p.IsVoided() || !within(p.PaymentDate, from, to) {
			continue
		}
		if p.Direction == models.PaymentDirectionInbound {
			s.PaymentsReceived = s.PaymentsReceived.Add(p.Amount)
		} else {
			s.PaymentsMade = s.PaymentsMade.Add(p.Amount)
		}
	}
	s.GrossProfit = s.Revenue.Sub(s.COGS)
	return s
}
