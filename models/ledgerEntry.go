package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is an append-only money fact against a party. Amount is never negative;
// the sign comes from Direction.
type LedgerEntry struct {
	ID                string          `gorm:"size:36;primary_key" json:"id"`
	PartyId           string          `gorm:"size:36;not null;index" json:"party_id"`
	Category          LedgerCategory  `gorm:"size:20;not null" json:"category"`
	Direction         Direction       `gorm:"size:10;not null" json:"direction"`
	Amount            decimal.Decimal `gorm:"type:decimal(28,8);not null" json:"amount"`
	SourceType        SourceType      `gorm:"size:20;not null;index:idx_ledger_source,priority:1" json:"source_type"`
	SourceId          string          `gorm:"size:36;not null;index:idx_ledger_source,priority:2" json:"source_id"`
	Status            RecordStatus    `gorm:"size:20;not null" json:"status"`
	IsReversal        bool            `gorm:"not null" json:"is_reversal"`
	ReversesEntryId   *string         `gorm:"size:36;index" json:"reverses_entry_id"`
	ReversedByEntryId *string         `gorm:"size:36" json:"reversed_by_entry_id"`
	EntryDate         time.Time       `gorm:"not null;index" json:"entry_date"`
	Memo              string          `gorm:"size:255" json:"memo"`
	CorrelationId     string          `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime:false" json:"created_at"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

func (e LedgerEntry) GetId() string { return e.ID }

func (e LedgerEntry) IsLive() bool {
	return e.Status == RecordStatusActive && !e.IsReversal && e.ReversedByEntryId == nil
}

func (e LedgerEntry) Reversal(id string, at time.Time, correlationId string) LedgerEntry {
	reversesId := e.ID
	return LedgerEntry{
		ID:              id,
		PartyId:         e.PartyId,
		Category:        e.Category,
		Direction:       e.Direction.Opposite(),
		Amount:          e.Amount,
		SourceType:      e.SourceType,
		SourceId:        e.SourceId,
		Status:          RecordStatusActive,
		IsReversal:      true,
		ReversesEntryId: &reversesId,
		EntryDate:       at,
		Memo:            "Void: " + e.Memo,
		CorrelationId:   correlationId,
		CreatedAt:       at,
	}
}
