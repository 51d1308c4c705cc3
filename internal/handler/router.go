package handler

import (
	"go-stock-tracker/internal/middleware"
	"go-stock-tracker/internal/model"

	"github.com/gofiber/fiber/v2"
)

// Router groups every API handler so routes are declared in one place.
type Router struct {
	Auth          *AuthHandler
	Dashboard     *DashboardHandler
	Categories    *CategoryHandler
	Inventory     *InventoryHandler
	StockRequests *StockRequestHandler
	Users         *UserHandler
	Roles         *RoleHandler
}

// Register mounts the /api/v1 routes. requireAuth guards everything except login and friends.
func (r Router) Register(app fiber.Router, requireAuth fiber.Handler) {
	api := app.Group("/api/v1")
	priv := middleware.RequirePrivilege

	auth := api.Group("/auth")
	auth.Post("/login", r.Auth.Login)
	auth.Post("/register", r.Auth.Register)
	auth.Post("/reset-password", r.Auth.ResetPassword)
	auth.Post("/validate-token", r.Auth.ValidateToken)
	auth.Post("/heartbeat", requireAuth, r.Auth.Heartbeat)
	auth.Get("/profile", requireAuth, r.Auth.Profile)
	auth.Post("/refresh-token", requireAuth, r.Auth.RefreshToken)

	protected := api.Group("", requireAuth)

	protected.Get("/dashboard/stats", priv(model.PrivDashboardView), r.Dashboard.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", priv(model.PrivDashboardView), r.Dashboard.GetStockMovement)

	protected.Get("/categories", priv(model.PrivCategoryView), r.Categories.GetCategories)
	protected.Get("/categories/:id", priv(model.PrivCategoryView), r.Categories.GetCategory)
	protected.Post("/categories", priv(model.PrivCategoryCreate), r.Categories.CreateCategory)
	protected.Put("/categories/:id", priv(model.PrivCategoryUpdate), r.Categories.UpdateCategory)
	protected.Delete("/categories/:id", priv(model.PrivCategoryDelete), r.Categories.DeleteCategory)

	protected.Get("/products", priv(model.PrivProductView), r.Inventory.GetProducts)
	protected.Get("/products/low-stock", priv(model.PrivProductView), r.Inventory.GetLowStockProducts)
	protected.Get("/products/:id", priv(model.PrivProductView), r.Inventory.GetProduct)
	protected.Post("/products", priv(model.PrivProductCreate), r.Inventory.CreateProduct)
	protected.Put("/products/:id", priv(model.PrivProductUpdate), r.Inventory.UpdateProduct)
	protected.Delete("/products/:id", priv(model.PrivProductDelete), r.Inventory.DeleteProduct)

	protected.Get("/transactions", priv(model.PrivTransactionView), r.Inventory.GetTransactions)
	protected.Get("/transactions/report", priv(model.PrivTransactionView), r.Inventory.GetStockReport)
	protected.Get("/transactions/:id", priv(model.PrivTransactionView), r.Inventory.GetTransaction)
	protected.Post("/transactions", priv(model.PrivTransactionCreate), r.Inventory.CreateTransaction)

	protected.Get("/stock-requests", priv(model.PrivStockRequestView), r.StockRequests.GetStockRequests)
	protected.Get("/stock-requests/:id", priv(model.PrivStockRequestView), r.StockRequests.GetStockRequest)
	protected.Post("/stock-requests", priv(model.PrivStockRequestCreate), r.StockRequests.CreateStockRequest)
	protected.Put("/stock-requests/:id", priv(model.PrivStockRequestCreate), r.StockRequests.UpdateStockRequest)
	protected.Delete("/stock-requests/:id", priv(model.PrivStockRequestCreate), r.StockRequests.DeleteStockRequest)
	// The service still enforces the admin role and the no-self-approval rule.
	protected.Put("/stock-requests/:id/approve", priv(model.PrivStockRequestApprove), r.StockRequests.ApproveStockRequest)
	protected.Put("/stock-requests/:id/reject", priv(model.PrivStockRequestApprove), r.StockRequests.RejectStockRequest)

	protected.Get("/users", priv(model.PrivUserView), r.Users.GetUsers)
	protected.Get("/users/admin-requests", middleware.RequirePrimaryAdmin(), r.Users.GetAdminRequests)
	protected.Get("/users/:id", priv(model.PrivUserView), r.Users.GetUser)
	protected.Post("/users", priv(model.PrivUserCreate), r.Users.CreateUser)
	protected.Put("/users/:id", priv(model.PrivUserUpdate), r.Users.UpdateUser)
	protected.Delete("/users/:id", priv(model.PrivUserDelete), r.Users.DeleteUser)
	protected.Put("/users/:id/privileges", priv(model.PrivUserUpdatePrivilege), r.Users.UpdateUserPrivileges)
	protected.Post("/users/:id/admin-decision", middleware.RequirePrimaryAdmin(), r.Users.DecideAdminRequest)
	protected.Post("/users/:id/make-admin", middleware.RequirePrimaryAdmin(), r.Users.MakeAdmin)
	protected.Post("/users/:id/remove-admin", middleware.RequirePrimaryAdmin(), r.Users.RemoveAdmin)

	protected.Get("/roles", r.Roles.GetRoles)
	protected.Get("/privileges", r.Roles.GetPrivileges)
}
