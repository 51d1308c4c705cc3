package service

import (
	"time"

	"go-stock-tracker/internal/apperror"
	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Fixed transaction notes written by the system
const (
	NoteStockRequestApproved = "stock request approved"
	NoteManualAdjustment     = "manual stock adjustment"
)

type stockMovement struct {
	Type           model.TransactionType
	Quantity       int
	UnitPrice      decimal.NullDecimal
	Notes          string
	ActorID        *uuid.UUID
	StockRequestID *uuid.UUID
	At             time.Time
}

// stockLedger is the only code allowed to change Product.StockQuantity.
type stockLedger struct {
	products     repository.ProductRepository
	transactions repository.TransactionRepository
}

// apply moves stock on an already locked product and appends the paired audit row, both in tx.
// product.StockQuantity is updated in place on success.
func (l stockLedger) apply(tx *gorm.DB, product *model.Product, m stockMovement) (*model.StockTransaction, error) {
	if !m.Type.Valid() {
		return nil, apperror.InvalidArgumentf("unknown transaction type %q", m.Type)
	}
	if m.Quantity <= 0 {
		return nil, apperror.InvalidArgument("quantity must be a positive integer")
	}

	newStock := product.StockQuantity + m.Quantity
	if m.Type == model.TxOut {
		if product.StockQuantity < m.Quantity {
			return nil, apperror.InsufficientStock(product.StockQuantity, m.Quantity)
		}
		newStock = product.StockQuantity - m.Quantity
	}

	rows, err := l.products.UpdateStock(tx, product.ID, product.StockQuantity, newStock, m.ActorID)
	if err != nil {
		return nil, apperror.Internal("failed to update stock", err)
	}
	if rows == 0 {
		return nil, apperror.Conflict("product stock changed concurrently, retry the operation")
	}

	at := m.At
	if at.IsZero() {
		at = time.Now()
	}
	record := &model.StockTransaction{
		ProductID:       product.ID,
		Type:            m.Type,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		Notes:           m.Notes,
		UserID:          m.ActorID,
		StockRequestID:  m.StockRequestID,
		TransactionDate: at,
	}
	if err := l.transactions.Create(tx, record); err != nil {
		return nil, apperror.Internal("failed to record stock transaction", err)
	}

	product.StockQuantity = newStock
	return record, nil
}
