package handler

import (
	"go-stock-tracker/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService service.UserService
	log         *zap.Logger
}

func NewUserHandler(userService service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: namedOrNop(log, "users")}
}

// CreateUser handles user creation
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	user, err := h.userService.CreateUser(c.UserContext(), req, currentCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    user,
	})
}

// UpdateUserPrivileges handles privilege assignment
// PUT /api/v1/users/:id/privileges
func (h *UserHandler) UpdateUserPrivileges(c *fiber.Ctx) error {
	userID, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}
	var req struct {
		Privileges []string `json:"privileges"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	user, err := h.userService.UpdateUserPrivileges(c.UserContext(), userID, req.Privileges, currentCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message": "Privileges updated successfully",
		"data":    user,
	})
}

// GetUsers returns all users
// GET /api/v1/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(users)
}

// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	userID, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}
	user, err := h.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(user)
}

// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	userID, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}
	var req service.UpdateUserInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	user, err := h.userService.UpdateUser(c.UserContext(), userID, req, currentCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"data":    user,
	})
}

// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}
	if err := h.userService.DeleteUser(c.UserContext(), userID, currentCaller(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// GET /api/v1/users/admin-requests
func (h *UserHandler) GetAdminRequests(c *fiber.Ctx) error {
	users, err := h.userService.ListAdminRequests(c.UserContext(), currentCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(users)
}

// DecideAdminRequest expects {"approve": true|false}
// POST /api/v1/users/:id/admin-decision
func (h *UserHandler) DecideAdminRequest(c *fiber.Ctx) error {
	userID, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}
	var req struct {
		Approve *bool `json:"approve"`
	}
	if err := c.BodyParser(&req); err != nil || req.Approve == nil {
		return badRequest(c, "approve is required")
	}

	user, err := h.userService.DecideAdminRequest(c.UserContext(), userID, *req.Approve, currentCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Admin request decided", "data": user})
}

// POST /api/v1/users/:id/make-admin
func (h *UserHandler) MakeAdmin(c *fiber.Ctx) error {
	userID, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}
	user, err := h.userService.MakeAdmin(c.UserContext(), userID, currentCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "User promoted to administrator", "data": user})
}

// POST /api/v1/users/:id/remove-admin
func (h *UserHandler) RemoveAdmin(c *fiber.Ctx) error {
	userID, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}
	user, err := h.userService.RemoveAdmin(c.UserContext(), userID, currentCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Administrator role removed", "data": user})
}
