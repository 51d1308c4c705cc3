package handler

import (
	"go-stock-tracker/internal/apperror"
	"go-stock-tracker/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type RoleHandler struct {
	roleRepo      repository.RoleRepository
	privilegeRepo repository.PrivilegeRepository
	log           *zap.Logger
}

func NewRoleHandler(roleRepo repository.RoleRepository, privilegeRepo repository.PrivilegeRepository, log *zap.Logger) *RoleHandler {
	return &RoleHandler{roleRepo: roleRepo, privilegeRepo: privilegeRepo, log: namedOrNop(log, "roles")}
}

// GetRoles returns all available roles
// GET /api/v1/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	roles, err := h.roleRepo.FindAll(c.UserContext())
	if err != nil {
		return respondError(c, h.log, apperror.Internal("failed to fetch roles", err))
	}
	return c.JSON(roles)
}

// GET /api/v1/privileges
func (h *RoleHandler) GetPrivileges(c *fiber.Ctx) error {
	privileges, err := h.privilegeRepo.FindAll(c.UserContext())
	if err != nil {
		return respondError(c, h.log, apperror.Internal("failed to fetch privileges", err))
	}
	return c.JSON(privileges)
}
