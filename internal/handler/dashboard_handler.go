package handler

import (
	"go-stock-tracker/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	service service.DashboardService
	log     *zap.Logger
}

func NewDashboardHandler(s service.DashboardService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: s, log: namedOrNop(log, "dashboard")}
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7, at most 90)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	days := c.QueryInt("days", service.DefaultMovementDays)
	if days <= 0 {
		days = service.DefaultMovementDays
	}
	if days > service.MaxMovementDays {
		days = service.MaxMovementDays
	}

	data, err := h.service.GetStockMovement(c.UserContext(), days)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(stats)
}
