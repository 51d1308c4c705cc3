package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "product:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Create Product"
}

// Privilege codes checked by the route middleware
const (
	PrivUserView            = "user:view"
	PrivUserCreate          = "user:create"
	PrivUserUpdate          = "user:update"
	PrivUserDelete          = "user:delete"
	PrivUserUpdatePrivilege = "user:update_privilege"

	PrivCategoryView   = "category:view"
	PrivCategoryCreate = "category:create"
	PrivCategoryUpdate = "category:update"
	PrivCategoryDelete = "category:delete"

	PrivProductView   = "product:view"
	PrivProductCreate = "product:create"
	PrivProductUpdate = "product:update"
	PrivProductDelete = "product:delete"

	PrivTransactionView   = "transaction:view"
	PrivTransactionCreate = "transaction:create"

	PrivStockRequestView    = "stock_request:view"
	PrivStockRequestCreate  = "stock_request:create"
	PrivStockRequestApprove = "stock_request:approve"

	PrivDashboardView = "dashboard:view"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// User management
	{Code: PrivUserView, Name: "View User"},
	{Code: PrivUserCreate, Name: "Create User"},
	{Code: PrivUserUpdate, Name: "Update User"},
	{Code: PrivUserDelete, Name: "Delete User"},
	{Code: PrivUserUpdatePrivilege, Name: "Update User Privileges"},
	// Category management
	{Code: PrivCategoryView, Name: "View Category"},
	{Code: PrivCategoryCreate, Name: "Create Category"},
	{Code: PrivCategoryUpdate, Name: "Update Category"},
	{Code: PrivCategoryDelete, Name: "Delete Category"},
	// Product management
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	// Stock transactions
	{Code: PrivTransactionView, Name: "View Transaction"},
	{Code: PrivTransactionCreate, Name: "Create Transaction"},
	// Stock requests
	{Code: PrivStockRequestView, Name: "View Stock Request"},
	{Code: PrivStockRequestCreate, Name: "Create Stock Request"},
	{Code: PrivStockRequestApprove, Name: "Approve Stock Request"},
	// Dashboard
	{Code: PrivDashboardView, Name: "View Dashboard"},
}

// EmployeePrivileges is the subset granted to the EMPLOYEE role
var EmployeePrivileges = []string{
	PrivCategoryView,
	PrivProductView,
	PrivStockRequestView,
	PrivStockRequestCreate,
	PrivDashboardView,
}
