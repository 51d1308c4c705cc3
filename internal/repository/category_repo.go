package repository

import (
	"context"
	"strings"

	"go-stock-tracker/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	FindActiveByName(ctx context.Context, name string, excludeID *uuid.UUID) (*model.Category, error)
	ListActiveWithCounts(ctx context.Context) ([]model.CategoryWithCount, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Deactivate(ctx context.Context, id uuid.UUID, updatedBy string) error
}

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindActiveByName matches case-insensitively, optionally ignoring one category (the one being renamed).
func (r *categoryRepo) FindActiveByName(ctx context.Context, name string, excludeID *uuid.UUID) (*model.Category, error) {
	q := r.db.WithContext(ctx).
		Where("LOWER(name) = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(name)), true)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var category model.Category
	if err := q.First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) ListActiveWithCounts(ctx context.Context) ([]model.CategoryWithCount, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}

	type countRow struct {
		CategoryID uuid.UUID
		Total      int64
	}
	var counts []countRow
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("category_id, COUNT(*) AS total").
		Where("is_active = ?", true).
		Group("category_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	byCategory := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byCategory[c.CategoryID] = c.Total
	}

	result := make([]model.CategoryWithCount, len(categories))
	for i, c := range categories {
		result[i] = model.CategoryWithCount{Category: c, ProductCount: byCategory[c.ID]}
	}
	return result, nil
}

func (r *categoryRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Updates(fields).Error
}

func (r *categoryRepo) Deactivate(ctx context.Context, id uuid.UUID, updatedBy string) error {
	return r.db.WithContext(ctx).Model(&model.Category{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_by": updatedBy}).Error
}
