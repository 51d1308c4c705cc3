package repository

import (
	"context"
	"time"

	"go-stock-tracker/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionFilter struct {
	ProductID *uuid.UUID
	Type      *model.TransactionType
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

type TransactionRepository interface {
	Create(tx *gorm.DB, t *model.StockTransaction) error
	FindAll(ctx context.Context, filter TransactionFilter) ([]model.StockTransaction, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error)
	FindByStockRequest(ctx context.Context, requestID uuid.UUID) ([]model.StockTransaction, error)
	GetStockReport(ctx context.Context) ([]StockReportRow, error)
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

// StockMovementData is one day of the movement chart
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// DashboardStats is the overview card data
type DashboardStats struct {
	TotalProducts     int64           `json:"total_products"`
	TotalCategories   int64           `json:"total_categories"`
	TotalTransactions int64           `json:"total_transactions"`
	LowStockCount     int64           `json:"low_stock_count"`
	PendingRequests   int64           `json:"pending_requests"`
	TotalValuation    decimal.Decimal `json:"total_valuation"`
}

type StockReportRow struct {
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Brand             string          `json:"brand"`
	CategoryName      string          `json:"category_name"`
	CurrentStock      int             `json:"current_stock"`
	MinimumStockLevel int             `json:"minimum_stock_level"`
	Price             decimal.Decimal `json:"price"`
	TotalIn           int64           `json:"total_in"`
	TotalOut          int64           `json:"total_out"`
	StockValue        decimal.Decimal `json:"stock_value" gorm:"-"`
	IsLowStock        bool            `json:"is_low_stock" gorm:"-"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

// Create must run inside the transaction that changed the product's stock.
func (r *transactionRepo) Create(tx *gorm.DB, t *model.StockTransaction) error {
	return tx.Omit(clause.Associations).Create(t).Error
}

func (r *transactionRepo) FindAll(ctx context.Context, filter TransactionFilter) ([]model.StockTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockTransaction{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}
	if filter.From != nil {
		q = q.Where("transaction_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("transaction_date <= ?", *filter.To)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transactions []model.StockTransaction
	err := paginate(q, filter.Page, filter.PageSize).
		Preload("Product").
		Preload("User").
		Order("transaction_date DESC").
		Find(&transactions).Error
	return transactions, total, err
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error) {
	var transaction model.StockTransaction
	if err := r.db.WithContext(ctx).Preload("Product").Preload("User").First(&transaction, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepo) FindByStockRequest(ctx context.Context, requestID uuid.UUID) ([]model.StockTransaction, error) {
	var transactions []model.StockTransaction
	err := r.db.WithContext(ctx).
		Where("stock_request_id = ?", requestID).
		Order("transaction_date ASC").
		Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) GetStockReport(ctx context.Context) ([]StockReportRow, error) {
	var rows []StockReportRow
	err := r.db.WithContext(ctx).
		Table("products p").
		Select(`
			p.id AS product_id,
			p.name AS product_name,
			p.brand AS brand,
			COALESCE(c.name, '') AS category_name,
			p.stock_quantity AS current_stock,
			p.minimum_stock_level AS minimum_stock_level,
			p.price AS price,
			COALESCE(SUM(CASE WHEN t.type = 'IN' THEN t.quantity ELSE 0 END), 0) AS total_in,
			COALESCE(SUM(CASE WHEN t.type = 'OUT' THEN t.quantity ELSE 0 END), 0) AS total_out
		`).
		Joins("LEFT JOIN categories c ON c.id = p.category_id").
		Joins("LEFT JOIN stock_transactions t ON t.product_id = p.id").
		Where("p.is_active = ?", true).
		Group("p.id, p.name, p.brand, c.name, p.stock_quantity, p.minimum_stock_level, p.price").
		Order("p.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i].StockValue = rows[i].Price.Mul(decimal.NewFromInt(int64(rows[i].CurrentStock)))
		rows[i].IsLowStock = rows[i].CurrentStock <= rows[i].MinimumStockLevel
	}
	return rows, nil
}

// GetStockMovement buckets transactions per calendar day in startDate's location.
// Days without movement are returned as zeroes so the series is continuous.
func (r *transactionRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	var transactions []model.StockTransaction
	err := r.db.WithContext(ctx).
		Select("type", "quantity", "transaction_date").
		Where("transaction_date BETWEEN ? AND ?", startDate, endDate).
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	loc := startDate.Location()
	const layout = "2006-01-02"

	var results []StockMovementData
	index := make(map[string]int)
	first := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, loc)
	for d := first; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		key := d.Format(layout)
		index[key] = len(results)
		results = append(results, StockMovementData{Date: key})
	}

	for _, t := range transactions {
		i, ok := index[t.TransactionDate.In(loc).Format(layout)]
		if !ok {
			continue
		}
		switch t.Type {
		case model.TxIn:
			results[i].Inbound += t.Quantity
		case model.TxOut:
			results[i].Outbound += t.Quantity
		}
	}
	return results, nil
}

func (r *transactionRepo) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Where("is_active = ?", true).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Category{}).Where("is_active = ?", true).Count(&stats.TotalCategories).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.StockTransaction{}).Count(&stats.TotalTransactions).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).
		Where("is_active = ? AND stock_quantity <= minimum_stock_level", true).
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.StockRequest{}).Where("status = ?", model.StatusPending).Count(&stats.PendingRequests).Error; err != nil {
		return nil, err
	}

	var valuation struct {
		Total decimal.Decimal
	}
	if err := db.Model(&model.Product{}).
		Select("COALESCE(SUM(stock_quantity * price), 0) AS total").
		Where("is_active = ?", true).
		Scan(&valuation).Error; err != nil {
		return nil, err
	}
	stats.TotalValuation = valuation.Total

	return &stats, nil
}
