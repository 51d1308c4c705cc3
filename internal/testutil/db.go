// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/seed"
	"go-stock-tracker/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated, seeded SQLite database private to the test.
// A single connection serializes transactions the way row locks do on Postgres.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, seed.RolesAndPrivileges(context.Background(), db))
	return db
}

// CreateUser inserts an active user with the given role code.
func CreateUser(t *testing.T, db *gorm.DB, email, roleCode string, primary bool) *model.User {
	t.Helper()

	var role model.Role
	require.NoError(t, db.Preload("Privileges").Where("code = ?", roleCode).First(&role).Error)

	user := &model.User{
		Email:          email,
		FirstName:      "Test",
		LastName:       roleCode,
		RoleID:         &role.ID,
		Role:           &role,
		IsActive:       true,
		IsPrimaryAdmin: primary,
		Privileges:     role.Privileges,
	}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, db.Omit("Role").Create(user).Error)
	return user
}

func CreateCategory(t *testing.T, db *gorm.DB, name string) *model.Category {
	t.Helper()

	category := &model.Category{Name: name, IsActive: true}
	require.NoError(t, db.Create(category).Error)
	return category
}

// CreateProduct inserts a product with stock set directly; only fixtures may do this.
func CreateProduct(t *testing.T, db *gorm.DB, categoryID uuid.UUID, name string, stock int) *model.Product {
	t.Helper()

	product := &model.Product{
		Name:              name,
		Price:             decimal.NewFromInt(10),
		StockQuantity:     stock,
		MinimumStockLevel: model.DefaultMinimumStockLevel,
		CategoryID:        categoryID,
		IsActive:          true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// Reload reads the current row for a product.
func Reload(t *testing.T, db *gorm.DB, id uuid.UUID) *model.Product {
	t.Helper()

	var product model.Product
	require.NoError(t, db.First(&product, "id = ?", id).Error)
	return &product
}
