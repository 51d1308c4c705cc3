package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxIn  TransactionType = "IN"
	TxOut TransactionType = "OUT"
)

func (t TransactionType) Valid() bool {
	return t == TxIn || t == TxOut
}

// StockTransaction is the audit record of one stock movement. Rows are insert-only.
type StockTransaction struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID           `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product            `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Type      TransactionType     `gorm:"type:varchar(10);not null;index" json:"type"`
	Quantity  int                 `gorm:"not null" json:"quantity"`
	UnitPrice decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"unit_price"`
	Notes     string              `gorm:"type:varchar(500)" json:"notes,omitempty"`

	// UserID survives user deletion as NULL; the history itself is never removed.
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User   *User      `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`

	StockRequestID *uuid.UUID `gorm:"type:uuid;index" json:"stock_request_id,omitempty"`

	TransactionDate time.Time `gorm:"not null;index" json:"transaction_date"`
	CreatedAt       time.Time `json:"created_at"`
}

func (t *StockTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// StockDelta is the signed change this transaction applied to the product
func (t *StockTransaction) StockDelta() int {
	if t.Type == TxOut {
		return -t.Quantity
	}
	return t.Quantity
}
