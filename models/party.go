package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Party is a customer, a supplier or both. Its balance is derived from ledger entries.
type Party struct {
	ID             string          `gorm:"size:36;primary_key" json:"id"`
	Type           PartyType       `gorm:"size:20;not null;index" json:"type"`
	Name           string          `gorm:"size:150;not null" json:"name"`
	Phone          string          `gorm:"size:30" json:"phone"`
	Email          string          `gorm:"size:150" json:"email"`
	Address        string          `gorm:"type:text" json:"address"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(28,8);not null" json:"opening_balance"`
	IsActive       bool            `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (Party) TableName() string { return "parties" }

func (p Party) GetId() string { return p.ID }

type NewParty struct {
	Type           PartyType       `json:"type" validate:"required"`
	Name           string          `json:"name" validate:"required,max=150"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email" validate:"omitempty,email"`
	Address        string          `json:"address"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

type UpdateParty struct {
	Name     string `json:"name" validate:"required,max=150"`
	Phone    string `json:"phone"`
	Email    string `json:"email" validate:"omitempty,email"`
	Address  string `json:"address"`
	IsActive *bool  `json:"is_active"`
}
