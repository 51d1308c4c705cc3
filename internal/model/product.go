package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMinimumStockLevel applies when a product is created without one
const DefaultMinimumStockLevel = 10

type Product struct {
	BaseModel
	Name        string          `gorm:"type:varchar(200);not null;index" json:"name"`
	Brand       string          `gorm:"type:varchar(100)" json:"brand,omitempty"`
	Model       string          `gorm:"type:varchar(50)" json:"model,omitempty"`
	Barcode     string          `gorm:"type:varchar(20);index" json:"barcode,omitempty"`
	Description string          `gorm:"type:varchar(1000)" json:"description,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`

	// StockQuantity is only ever changed together with a StockTransaction row.
	StockQuantity     int `gorm:"not null;default:0" json:"stock_quantity"`
	MinimumStockLevel int `gorm:"not null" json:"minimum_stock_level"`

	CategoryID uuid.UUID `gorm:"type:uuid;not null;index" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	IsActive   bool      `gorm:"not null;default:true;index" json:"is_active"`

	// User tracking
	CreatedByUserID *uuid.UUID `gorm:"type:uuid" json:"created_by_user_id,omitempty"`
	UpdatedByUserID *uuid.UUID `gorm:"type:uuid" json:"updated_by_user_id,omitempty"`
}

// IsLowStock reports whether the product is at or under its reorder level
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinimumStockLevel
}
