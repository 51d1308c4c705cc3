package service

import (
	"context"
	"fmt"
	"time"

	"go-stock-tracker/internal/apperror"
	"go-stock-tracker/internal/metrics"
	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const NoteInitialStock = "initial stock"

type ProductInput struct {
	Name              string          `json:"name" validate:"required,notblank,max=200"`
	Brand             string          `json:"brand" validate:"max=100"`
	Model             string          `json:"model" validate:"max=50"`
	Barcode           string          `json:"barcode" validate:"max=20"`
	Description       string          `json:"description" validate:"max=1000"`
	Price             decimal.Decimal `json:"price"`
	StockQuantity     *int            `json:"stock_quantity"`
	MinimumStockLevel *int            `json:"minimum_stock_level"`
	CategoryID        uuid.UUID       `json:"category_id" validate:"uuid_required"`
}

type RecordTransactionInput struct {
	ProductID uuid.UUID        `json:"product_id" validate:"uuid_required"`
	Type      string           `json:"type" validate:"required"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Notes     string           `json:"notes"`
}

type PageResult[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

type InventoryService interface {
	CreateProduct(ctx context.Context, in ProductInput, caller Caller) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput, caller Caller) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, caller Caller) error
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) (*PageResult[model.Product], error)
	GetLowStockProducts(ctx context.Context) ([]model.Product, error)

	RecordTransaction(ctx context.Context, in RecordTransactionInput, caller Caller) (*model.StockTransaction, error)
	ListTransactions(ctx context.Context, filter repository.TransactionFilter) (*PageResult[model.StockTransaction], error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error)
	GetStockReport(ctx context.Context) ([]repository.StockReportRow, error)
}

type inventoryService struct {
	productRepo     repository.ProductRepository
	categoryRepo    repository.CategoryRepository
	transactionRepo repository.TransactionRepository
	ledger          stockLedger
	db              *gorm.DB
	events          EventPublisher
	now             func() time.Time
}

func NewInventoryService(
	pRepo repository.ProductRepository,
	cRepo repository.CategoryRepository,
	tRepo repository.TransactionRepository,
	db *gorm.DB,
	events EventPublisher,
) InventoryService {
	return &inventoryService{
		productRepo:     pRepo,
		categoryRepo:    cRepo,
		transactionRepo: tRepo,
		ledger:          stockLedger{products: pRepo, transactions: tRepo},
		db:              db,
		events:          publisherOrNop(events),
		now:             time.Now,
	}
}

func validateProductInput(in *ProductInput) error {
	if err := validationErr(in); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return apperror.InvalidArgument("price must not be negative")
	}
	if in.StockQuantity != nil && *in.StockQuantity < 0 {
		return apperror.InvalidArgument("stock quantity must not be negative")
	}
	if in.MinimumStockLevel != nil && *in.MinimumStockLevel < 0 {
		return apperror.InvalidArgument("minimum stock level must not be negative")
	}
	return nil
}

func (s *inventoryService) activeCategory(ctx context.Context, id uuid.UUID) error {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return lookupErr(err, "category not found")
	}
	if !category.IsActive {
		return apperror.NotFound("category not found")
	}
	return nil
}

func (s *inventoryService) CreateProduct(ctx context.Context, in ProductInput, caller Caller) (*model.Product, error) {
	if err := validateProductInput(&in); err != nil {
		return nil, err
	}
	if err := s.activeCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	minimum := model.DefaultMinimumStockLevel
	if in.MinimumStockLevel != nil {
		minimum = *in.MinimumStockLevel
	}
	product := &model.Product{
		Name:              in.Name,
		Brand:             in.Brand,
		Model:             in.Model,
		Barcode:           in.Barcode,
		Description:       in.Description,
		Price:             in.Price,
		MinimumStockLevel: minimum,
		CategoryID:        in.CategoryID,
		IsActive:          true,
		CreatedByUserID:   caller.idPtr(),
		UpdatedByUserID:   caller.idPtr(),
	}
	product.CreatedBy = caller.ID.String()
	product.UpdatedBy = caller.ID.String()

	// Opening stock goes through the ledger like any other movement.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.Create(tx, product); err != nil {
			return apperror.Internal("failed to create product", err)
		}
		if in.StockQuantity == nil || *in.StockQuantity == 0 {
			return nil
		}
		_, err := s.ledger.apply(tx, product, stockMovement{
			Type:     model.TxIn,
			Quantity: *in.StockQuantity,
			Notes:    NoteInitialStock,
			ActorID:  caller.idPtr(),
			At:       s.now(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ws.Event{
		Type:   ws.TypeStockUpdate,
		Action: "product_created",
		Data: map[string]interface{}{
			"id":    product.ID,
			"name":  product.Name,
			"stock": product.StockQuantity,
			"price": product.Price,
		},
		User:    caller.actor(),
		Message: fmt.Sprintf("%s created product '%s'", caller.Name, product.Name),
	})
	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct replaces the descriptive fields. A changed stock_quantity is booked as an
// adjustment movement for the difference instead of being overwritten.
func (s *inventoryService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput, caller Caller) (*model.Product, error) {
	if err := validateProductInput(&in); err != nil {
		return nil, err
	}
	if err := s.activeCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	var oldStock, newStock int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.productRepo.FindForUpdate(tx, id)
		if err != nil {
			return lookupErr(err, "product not found")
		}
		if !existing.IsActive {
			return apperror.NotFound("product not found")
		}
		oldStock = existing.StockQuantity

		fields := map[string]interface{}{
			"name":               in.Name,
			"brand":              in.Brand,
			"model":              in.Model,
			"barcode":            in.Barcode,
			"description":        in.Description,
			"price":              in.Price,
			"category_id":        in.CategoryID,
			"updated_by":         caller.ID.String(),
			"updated_by_user_id": caller.idPtr(),
		}
		if in.MinimumStockLevel != nil {
			fields["minimum_stock_level"] = *in.MinimumStockLevel
		}
		if err := s.productRepo.Update(tx, id, fields); err != nil {
			return apperror.Internal("failed to update product", err)
		}

		newStock = oldStock
		if in.StockQuantity == nil || *in.StockQuantity == oldStock {
			return nil
		}
		delta := *in.StockQuantity - oldStock
		movement := stockMovement{
			Type:     model.TxIn,
			Quantity: delta,
			Notes:    NoteManualAdjustment,
			ActorID:  caller.idPtr(),
			At:       s.now(),
		}
		if delta < 0 {
			movement.Type = model.TxOut
			movement.Quantity = -delta
		}
		if _, err := s.ledger.apply(tx, existing, movement); err != nil {
			return err
		}
		newStock = existing.StockQuantity
		return nil
	})
	if err != nil {
		return nil, err
	}

	if newStock != oldStock {
		metrics.StockMovements.WithLabelValues(stockDirection(oldStock, newStock), metrics.SourceAdjustment).Inc()
	}

	updated, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ws.Event{
		Type:   ws.TypeStockUpdate,
		Action: "product_updated",
		Data: map[string]interface{}{
			"id":        updated.ID,
			"name":      updated.Name,
			"old_stock": oldStock,
			"new_stock": updated.StockQuantity,
			"price":     updated.Price,
		},
		User:    caller.actor(),
		Message: fmt.Sprintf("%s updated product '%s'", caller.Name, updated.Name),
	})
	return updated, nil
}

func stockDirection(before, after int) string {
	if after > before {
		return string(model.TxIn)
	}
	return string(model.TxOut)
}

func (s *inventoryService) DeleteProduct(ctx context.Context, id uuid.UUID, caller Caller) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return lookupErr(err, "product not found")
	}
	if !product.IsActive {
		return apperror.NotFound("product not found")
	}
	if err := s.productRepo.Deactivate(ctx, id, caller.idPtr()); err != nil {
		return apperror.Internal("failed to delete product", err)
	}

	s.events.Publish(ws.Event{
		Type:    ws.TypeStockUpdate,
		Action:  "product_deleted",
		Data:    map[string]interface{}{"id": id, "name": product.Name},
		User:    caller.actor(),
		Message: fmt.Sprintf("%s deleted product '%s'", caller.Name, product.Name),
	})
	return nil
}

func (s *inventoryService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "product not found")
	}
	return product, nil
}

func (s *inventoryService) ListProducts(ctx context.Context, filter repository.ProductFilter) (*PageResult[model.Product], error) {
	filter.Page, filter.PageSize = repository.NormalizePage(filter.Page, filter.PageSize)
	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("failed to list products", err)
	}
	return &PageResult[model.Product]{Items: products, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (s *inventoryService) GetLowStockProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindLowStock(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list low stock products", err)
	}
	return products, nil
}

// RecordTransaction posts a direct IN/OUT movement against an active product.
func (s *inventoryService) RecordTransaction(ctx context.Context, in RecordTransactionInput, caller Caller) (*model.StockTransaction, error) {
	if err := validationErr(&in); err != nil {
		return nil, err
	}
	txType := model.TransactionType(in.Type)
	if !txType.Valid() {
		return nil, apperror.InvalidArgumentf("type must be %s or %s", model.TxIn, model.TxOut)
	}
	if in.Quantity <= 0 {
		return nil, apperror.InvalidArgument("quantity must be a positive integer")
	}
	var unitPrice decimal.NullDecimal
	if in.UnitPrice != nil {
		if in.UnitPrice.IsNegative() {
			return nil, apperror.InvalidArgument("unit price must not be negative")
		}
		unitPrice = decimal.NewNullDecimal(*in.UnitPrice)
	}
	notes, err := cleanNotes(in.Notes)
	if err != nil {
		return nil, err
	}

	var product *model.Product
	var record *model.StockTransaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.productRepo.FindForUpdate(tx, in.ProductID)
		if err != nil {
			return lookupErr(err, "product not found")
		}
		if !p.IsActive {
			return apperror.InvalidState("product is inactive")
		}
		product = p

		record, err = s.ledger.apply(tx, product, stockMovement{
			Type:      txType,
			Quantity:  in.Quantity,
			UnitPrice: unitPrice,
			Notes:     notes,
			ActorID:   caller.idPtr(),
			At:        s.now(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.StockMovements.WithLabelValues(string(txType), metrics.SourceManual).Inc()

	verb := "added"
	if txType == model.TxOut {
		verb = "removed"
	}
	s.events.Publish(ws.Event{
		Type:   ws.TypeStockUpdate,
		Action: "transaction_created",
		Data: map[string]interface{}{
			"id":         record.ID,
			"type":       txType,
			"quantity":   record.Quantity,
			"product_id": product.ID,
			"product":    map[string]interface{}{"name": product.Name},
			"new_stock":  product.StockQuantity,
		},
		User:    caller.actor(),
		Message: fmt.Sprintf("%s %s %d units of '%s' (%s)", caller.Name, verb, record.Quantity, product.Name, txType),
	})
	return s.GetTransaction(ctx, record.ID)
}

func (s *inventoryService) ListTransactions(ctx context.Context, filter repository.TransactionFilter) (*PageResult[model.StockTransaction], error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, apperror.InvalidArgumentf("type must be %s or %s", model.TxIn, model.TxOut)
	}
	filter.Page, filter.PageSize = repository.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.transactionRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("failed to list transactions", err)
	}
	return &PageResult[model.StockTransaction]{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (s *inventoryService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error) {
	t, err := s.transactionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "transaction not found")
	}
	return t, nil
}

func (s *inventoryService) GetStockReport(ctx context.Context) ([]repository.StockReportRow, error) {
	rows, err := s.transactionRepo.GetStockReport(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to build stock report", err)
	}
	return rows, nil
}
