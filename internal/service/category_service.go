package service

import (
	"context"
	"errors"
	"strings"

	"go-stock-tracker/internal/apperror"
	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryInput struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type CategoryService interface {
	List(ctx context.Context) ([]model.CategoryWithCount, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Category, error)
	Create(ctx context.Context, in CategoryInput, caller Caller) (*model.Category, error)
	Update(ctx context.Context, id uuid.UUID, in CategoryInput, caller Caller) (*model.Category, error)
	Delete(ctx context.Context, id uuid.UUID, caller Caller) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	events       EventPublisher
}

func NewCategoryService(cRepo repository.CategoryRepository, pRepo repository.ProductRepository, events EventPublisher) CategoryService {
	return &categoryService{categoryRepo: cRepo, productRepo: pRepo, events: publisherOrNop(events)}
}

func (s *categoryService) List(ctx context.Context) ([]model.CategoryWithCount, error) {
	categories, err := s.categoryRepo.ListActiveWithCounts(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list categories", err)
	}
	return categories, nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "category not found")
	}
	if !category.IsActive {
		return nil, apperror.NotFound("category not found")
	}
	return category, nil
}

func (s *categoryService) ensureUniqueName(ctx context.Context, name string, excludeID *uuid.UUID) error {
	_, err := s.categoryRepo.FindActiveByName(ctx, name, excludeID)
	if err == nil {
		return apperror.Conflict("category name already exists")
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return apperror.Internal("failed to check category name", err)
}

func (s *categoryService) Create(ctx context.Context, in CategoryInput, caller Caller) (*model.Category, error) {
	if err := validationErr(&in); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if err := s.ensureUniqueName(ctx, name, nil); err != nil {
		return nil, err
	}

	category := &model.Category{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		IsActive:    true,
	}
	category.CreatedBy = caller.ID.String()
	category.UpdatedBy = caller.ID.String()
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, apperror.Internal("failed to create category", err)
	}

	s.publish("category_created", category, caller)
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, in CategoryInput, caller Caller) (*model.Category, error) {
	if err := validationErr(&in); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if err := s.ensureUniqueName(ctx, name, &id); err != nil {
		return nil, err
	}

	err := s.categoryRepo.Update(ctx, id, map[string]interface{}{
		"name":        name,
		"description": strings.TrimSpace(in.Description),
		"updated_by":  caller.ID.String(),
	})
	if err != nil {
		return nil, apperror.Internal("failed to update category", err)
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish("category_updated", updated, caller)
	return updated, nil
}

// Delete deactivates the category; it is refused while active products still use it.
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID, caller Caller) error {
	category, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.productRepo.CountActiveByCategory(ctx, id)
	if err != nil {
		return apperror.Internal("failed to count products", err)
	}
	if n > 0 {
		return apperror.InvalidState("category still has active products")
	}
	if err := s.categoryRepo.Deactivate(ctx, id, caller.ID.String()); err != nil {
		return apperror.Internal("failed to delete category", err)
	}

	s.publish("category_deleted", category, caller)
	return nil
}

func (s *categoryService) publish(action string, c *model.Category, caller Caller) {
	s.events.Publish(ws.Event{
		Type:   ws.TypeCatalog,
		Action: action,
		Data:   map[string]interface{}{"id": c.ID, "name": c.Name},
		User:   caller.actor(),
	})
}
