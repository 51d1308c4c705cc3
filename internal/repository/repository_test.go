package repository_test

import (
	"context"
	"testing"
	"time"

	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePage(t *testing.T) {
	cases := []struct{ page, size, wantPage, wantSize int }{
		{0, 0, 1, repository.DefaultPageSize},
		{-3, 10, 1, 10},
		{2, 500, 2, repository.MaxPageSize},
		{4, 25, 4, 25},
	}
	for _, tc := range cases {
		page, size := repository.NormalizePage(tc.page, tc.size)
		assert.Equal(t, tc.wantPage, page)
		assert.Equal(t, tc.wantSize, size)
	}
}

func TestUpdateStockIsCompareAndSet(t *testing.T) {
	db := testutil.NewDB(t)
	category := testutil.CreateCategory(t, db, "Tools")
	product := testutil.CreateProduct(t, db, category.ID, "Hammer", 10)
	repo := repository.NewProductRepo(db)

	rows, err := repo.UpdateStock(db, product.ID, 9, 4, nil)
	require.NoError(t, err)
	assert.Zero(t, rows, "stale expected value must not write")
	assert.Equal(t, 10, testutil.Reload(t, db, product.ID).StockQuantity)

	rows, err = repo.UpdateStock(db, product.ID, 10, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.Equal(t, 4, testutil.Reload(t, db, product.ID).StockQuantity)
}

func TestUpdatePendingOnlyTouchesPendingRows(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "employee@example.com", model.RoleEmployee, false)
	product := testutil.CreateProduct(t, db, testutil.CreateCategory(t, db, "Tools").ID, "Hammer", 10)
	repo := repository.NewStockRequestRepo(db)

	req := &model.StockRequest{
		ProductID:     product.ID,
		RequestedByID: user.ID,
		Quantity:      2,
		Priority:      model.PriorityNormal,
		Status:        model.StatusPending,
	}
	require.NoError(t, repo.Create(ctx, req))

	n, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := repo.UpdatePending(db, req.ID, map[string]interface{}{"status": model.StatusRejected})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.UpdatePending(db, req.ID, map[string]interface{}{"quantity": 99})
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = repo.DeletePending(db, req.ID)
	require.NoError(t, err)
	assert.Zero(t, rows)

	stored, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Quantity)
	assert.Equal(t, model.StatusRejected, stored.Status)
	require.NotNil(t, stored.RequestedBy)
	assert.Equal(t, user.Email, stored.RequestedBy.Email)
}

func TestTransactionFilters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	category := testutil.CreateCategory(t, db, "Tools")
	hammer := testutil.CreateProduct(t, db, category.ID, "Hammer", 10)
	saw := testutil.CreateProduct(t, db, category.ID, "Saw", 10)
	repo := repository.NewTransactionRepo(db)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, p := range []*model.Product{hammer, hammer, saw} {
		txType := model.TxIn
		if i == 1 {
			txType = model.TxOut
		}
		require.NoError(t, repo.Create(db, &model.StockTransaction{
			ProductID:       p.ID,
			Type:            txType,
			Quantity:        i + 1,
			TransactionDate: base.AddDate(0, 0, i),
		}))
	}

	all, total, err := repo.FindAll(ctx, repository.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)
	assert.Equal(t, saw.ID, all[0].ProductID, "newest first")

	out := model.TxOut
	outs, total, err := repo.FindAll(ctx, repository.TransactionFilter{Type: &out})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 2, outs[0].Quantity)

	from := base.AddDate(0, 0, 1)
	recent, total, err := repo.FindAll(ctx, repository.TransactionFilter{ProductID: &hammer.ID, From: &from})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, recent, 1)

	paged, total, err := repo.FindAll(ctx, repository.TransactionFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "total ignores paging")
	assert.Len(t, paged, 1)
}

func TestProductListExcludesInactive(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	category := testutil.CreateCategory(t, db, "Tools")
	keep := testutil.CreateProduct(t, db, category.ID, "Hammer", 10)
	gone := testutil.CreateProduct(t, db, category.ID, "Old hammer", 10)
	repo := repository.NewProductRepo(db)

	require.NoError(t, repo.Deactivate(ctx, gone.ID, nil))

	products, total, err := repo.List(ctx, repository.ProductFilter{Search: "hammer"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, keep.ID, products[0].ID)

	_, total, err = repo.List(ctx, repository.ProductFilter{Search: "hammer", IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	n, err := repo.CountActiveByCategory(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.Error(t, err)
}
