package repository

import (
	"context"

	"go-stock-tracker/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRequestFilter struct {
	Status        *model.RequestStatus
	Priority      *model.RequestPriority
	RequestedByID *uuid.UUID
	ProductID     *uuid.UUID
}

type StockRequestRepository interface {
	Create(ctx context.Context, req *model.StockRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockRequest, error)
	FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.StockRequest, error)
	List(ctx context.Context, filter StockRequestFilter) ([]model.StockRequest, error)
	CountPending(ctx context.Context) (int64, error)
	UpdatePending(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) (int64, error)
	DeletePending(tx *gorm.DB, id uuid.UUID) (int64, error)
}

type stockRequestRepo struct {
	db *gorm.DB
}

func NewStockRequestRepo(db *gorm.DB) StockRequestRepository {
	return &stockRequestRepo{db}
}

func (r *stockRequestRepo) withDetails(q *gorm.DB) *gorm.DB {
	return q.Preload("Product").Preload("RequestedBy").Preload("ApprovedBy")
}

func (r *stockRequestRepo) Create(ctx context.Context, req *model.StockRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
}

func (r *stockRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockRequest, error) {
	var req model.StockRequest
	if err := r.withDetails(r.db.WithContext(ctx)).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindForUpdate row-locks the request for the rest of tx. Associations are not loaded.
func (r *stockRequestRepo) FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.StockRequest, error) {
	var req model.StockRequest
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *stockRequestRepo) List(ctx context.Context, filter StockRequestFilter) ([]model.StockRequest, error) {
	q := r.db.WithContext(ctx).Model(&model.StockRequest{})
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		q = q.Where("priority = ?", *filter.Priority)
	}
	if filter.RequestedByID != nil {
		q = q.Where("requested_by_id = ?", *filter.RequestedByID)
	}
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}

	var requests []model.StockRequest
	err := r.withDetails(q).Order("created_at DESC").Find(&requests).Error
	return requests, err
}

func (r *stockRequestRepo) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.StockRequest{}).
		Where("status = ?", model.StatusPending).
		Count(&n).Error
	return n, err
}

// UpdatePending only touches the row while it is still pending and reports how many rows changed.
func (r *stockRequestRepo) UpdatePending(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) (int64, error) {
	res := tx.Model(&model.StockRequest{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *stockRequestRepo) DeletePending(tx *gorm.DB, id uuid.UUID) (int64, error) {
	res := tx.Where("id = ? AND status = ?", id, model.StatusPending).Delete(&model.StockRequest{})
	return res.RowsAffected, res.Error
}
