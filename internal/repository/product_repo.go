package repository

import (
	"context"
	"strings"

	"go-stock-tracker/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	Search          string
	CategoryID      *uuid.UUID
	IncludeInactive bool
	Page            int
	PageSize        int
}

type ProductRepository interface {
	Create(tx *gorm.DB, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	FindLowStock(ctx context.Context) ([]model.Product, error)
	Update(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	UpdateStock(tx *gorm.DB, id uuid.UUID, expected, newStock int, updatedBy *uuid.UUID) (int64, error)
	Deactivate(ctx context.Context, id uuid.UUID, updatedBy *uuid.UUID) error
	CountActiveByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(tx *gorm.DB, product *model.Product) error {
	return tx.Omit(clause.Associations).Create(product).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindForUpdate row-locks the product for the rest of tx.
func (r *productRepo) FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if !filter.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(model) LIKE ? OR LOWER(barcode) LIKE ?",
			like, like, like, like,
		)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	err := paginate(q, filter.Page, filter.PageSize).
		Preload("Category").
		Order("name ASC").
		Find(&products).Error
	return products, total, err
}

func (r *productRepo) FindLowStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("is_active = ? AND stock_quantity <= minimum_stock_level", true).
		Order("stock_quantity ASC, name ASC").
		Find(&products).Error
	return products, err
}

// Update writes only the given columns so loaded associations are never upserted.
func (r *productRepo) Update(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateStock is a compare-and-set on stock_quantity; zero rows means the stock moved underneath us.
func (r *productRepo) UpdateStock(tx *gorm.DB, id uuid.UUID, expected, newStock int, updatedBy *uuid.UUID) (int64, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND stock_quantity = ?", id, expected).
		Updates(map[string]interface{}{
			"stock_quantity":     newStock,
			"updated_by_user_id": updatedBy,
		})
	return res.RowsAffected, res.Error
}

func (r *productRepo) Deactivate(ctx context.Context, id uuid.UUID, updatedBy *uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":          false,
			"updated_by_user_id": updatedBy,
		}).Error
}

func (r *productRepo) CountActiveByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Count(&n).Error
	return n, err
}
