package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryMovement is an append-only quantity fact.
// A void appends a compensating movement and links both rows; neither row is deleted.
type InventoryMovement struct {
	ID                   string          `gorm:"size:36;primary_key" json:"id"`
	ItemKind             ItemKind        `gorm:"size:20;not null;index:idx_movement_item,priority:1" json:"item_kind"`
	ItemId               string          `gorm:"size:255;not null;index:idx_movement_item,priority:2" json:"item_id"`
	Brand                string          `gorm:"size:100" json:"brand,omitempty"`
	ProductName          string          `gorm:"size:150" json:"product_name,omitempty"`
	PackSize             string          `gorm:"size:50" json:"pack_size,omitempty"`
	QtyDelta             decimal.Decimal `gorm:"type:decimal(28,8);not null" json:"qty_delta"`
	Reason               MovementReason  `gorm:"size:20;not null" json:"reason"`
	SourceType           SourceType      `gorm:"size:20;not null;index:idx_movement_source,priority:1" json:"source_type"`
	SourceId             string          `gorm:"size:36;not null;index:idx_movement_source,priority:2" json:"source_id"`
	UnitCost             decimal.Decimal `gorm:"type:decimal(28,8);not null" json:"unit_cost"`
	TotalCost            decimal.Decimal `gorm:"type:decimal(28,8);not null" json:"total_cost"`
	Status               RecordStatus    `gorm:"size:20;not null" json:"status"`
	IsReversal           bool            `gorm:"not null" json:"is_reversal"`
	ReversesMovementId   *string         `gorm:"size:36;index" json:"reverses_movement_id"`
	ReversedByMovementId *string         `gorm:"size:36" json:"reversed_by_movement_id"`
	EffectiveDate        time.Time       `gorm:"not null;index" json:"effective_date"`
	CorrelationId        string          `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt            time.Time       `gorm:"not null;autoCreateTime:false" json:"created_at"`
}

func (InventoryMovement) TableName() string { return "inventory_movements" }

func (m InventoryMovement) GetId() string { return m.ID }

// IsLive reports whether the movement still counts as an original, un-reversed fact.
func (m InventoryMovement) IsLive() bool {
	return m.Status == RecordStatusActive && !m.IsReversal && m.ReversedByMovementId == nil
}

// Reversal builds the compensating movement for m. The caller links m.ReversedByMovementId.
func (m InventoryMovement) Reversal(id string, at time.Time, correlationId string) InventoryMovement {
	reversesId := m.ID
	return InventoryMovement{
		ID:                 id,
		ItemKind:           m.ItemKind,
		ItemId:             m.ItemId,
		Brand:              m.Brand,
		ProductName:        m.ProductName,
		PackSize:           m.PackSize,
		QtyDelta:           m.QtyDelta.Neg(),
		Reason:             MovementReasonVoid,
		SourceType:         m.SourceType,
		SourceId:           m.SourceId,
		UnitCost:           m.UnitCost,
		TotalCost:          m.TotalCost.Neg(),
		Status:             RecordStatusActive,
		IsReversal:         true,
		ReversesMovementId: &reversesId,
		EffectiveDate:      at,
		CorrelationId:      correlationId,
		CreatedAt:          at,
	}
}
