package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment settles a party balance. Inbound posts a Debit, Outbound a Credit.
type Payment struct {
	ID          string           `gorm:"size:36;primary_key" json:"id"`
	PartyId     string           `gorm:"size:36;not null;index" json:"party_id"`
	Direction   PaymentDirection `gorm:"size:10;not null" json:"direction"`
	Amount      decimal.Decimal  `gorm:"type:decimal(28,8);not null" json:"amount"`
	PaymentDate time.Time        `gorm:"not null;index" json:"payment_date"`
	Method      string           `gorm:"size:50" json:"method"`
	Reference   string           `gorm:"size:100" json:"reference"`
	Notes       string           `gorm:"type:text" json:"notes"`
	VoidInfo
	CorrelationId string    `gorm:"size:64" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

func (p Payment) GetId() string { return p.ID }

func (p Payment) LedgerDirection() Direction {
	if p.Direction == PaymentDirectionInbound {
		return DirectionDebit
	}
	return DirectionCredit
}

type NewPayment struct {
	PartyId     string           `json:"party_id" validate:"required"`
	Direction   PaymentDirection `json:"direction" validate:"required"`
	Amount      decimal.Decimal  `json:"amount"`
	PaymentDate time.Time        `json:"payment_date" validate:"required"`
	Method      string           `json:"method"`
	Reference   string           `json:"reference"`
	Notes       string           `json:"notes"`
}
