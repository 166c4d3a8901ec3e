package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostScale is the number of decimal places kept for unit and average costs.
const CostScale = 8

// Record is a row of the table store, addressed by table name and id.
type Record interface {
	TableName() string
	GetId() string
}

func NewId() string {
	return uuid.NewString()
}

// FinishedGoodKey identifies a finished good; it is the ItemId of finished-good movements.
func FinishedGoodKey(brand, productName, packSize string) string {
	return strings.Join([]string{strings.TrimSpace(brand), strings.TrimSpace(productName), strings.TrimSpace(packSize)}, "|")
}

func RoundCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(CostScale)
}

// JSONList persists a slice as a JSON text column.
type JSONList[T any] []T

func (l JSONList[T]) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]T(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *JSONList[T]) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONList", src)
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// VoidInfo is the header status block shared by all transactions.
type VoidInfo struct {
	Status     RecordStatus `gorm:"size:20;not null;index" json:"status"`
	VoidedAt   *time.Time   `json:"voided_at"`
	VoidReason string       `gorm:"size:255" json:"void_reason"`
}

func (v VoidInfo) IsVoided() bool {
	return v.Status == RecordStatusVoided
}

func (v *VoidInfo) MarkVoided(at time.Time, reason string) {
	v.Status = RecordStatusVoided
	v.VoidedAt = &at
	v.VoidReason = reason
}
