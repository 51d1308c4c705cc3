package service

import (
	"context"
	"testing"

	"go-stock-tracker/internal/apperror"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/internal/testutil"
	"go-stock-tracker/internal/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCategories(f *fixture) CategoryService {
	return NewCategoryService(repository.NewCategoryRepo(f.db), repository.NewProductRepo(f.db), f.events)
}

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture(t, 1)
	svc := newCategories(f)
	ctx := context.Background()

	created, err := svc.Create(ctx, CategoryInput{Name: "  Peripherals ", Description: "mice and keyboards"}, callerFor(f.admin))
	require.NoError(t, err)
	assert.Equal(t, "Peripherals", created.Name)

	_, err = svc.Create(ctx, CategoryInput{Name: "peripherals"}, callerFor(f.admin))
	assert.ErrorIs(t, err, apperror.ErrConflict)

	updated, err := svc.Update(ctx, created.ID, CategoryInput{Name: "Peripherals", Description: "input devices"}, callerFor(f.admin))
	require.NoError(t, err)
	assert.Equal(t, "input devices", updated.Description)

	_, err = svc.Update(ctx, created.ID, CategoryInput{Name: "cables"}, callerFor(f.admin))
	assert.ErrorIs(t, err, apperror.ErrConflict)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	counts := map[string]int64{}
	for _, c := range list {
		counts[c.Name] = c.ProductCount
	}
	assert.Equal(t, int64(1), counts["Cables"])
	assert.Equal(t, int64(0), counts["Peripherals"])

	require.NoError(t, svc.Delete(ctx, created.ID, callerFor(f.admin)))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Equal(t, []string{"category_created", "category_updated", "category_deleted"}, f.events.actions(ws.TypeCatalog))
}

func TestDeleteCategoryWithActiveProducts(t *testing.T) {
	f := newFixture(t, 1)
	svc := newCategories(f)
	ctx := context.Background()

	err := svc.Delete(ctx, f.category.ID, callerFor(f.admin))
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	require.NoError(t, f.db.Model(f.product).Update("is_active", false).Error)
	require.NoError(t, svc.Delete(ctx, f.category.ID, callerFor(f.admin)))
}

func TestCategoryValidation(t *testing.T) {
	f := newFixture(t, 1)
	svc := newCategories(f)

	_, err := svc.Create(context.Background(), CategoryInput{Name: " "}, callerFor(f.admin))
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	other := testutil.CreateCategory(t, f.db, "Archived")
	require.NoError(t, f.db.Model(other).Update("is_active", false).Error)
	_, err = svc.Create(context.Background(), CategoryInput{Name: "Archived"}, callerFor(f.admin))
	assert.NoError(t, err, "inactive names may be reused")
}
