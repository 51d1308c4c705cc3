package handler

import (
	"go-stock-tracker/internal/middleware"
	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StockRequestHandler struct {
	service service.StockRequestService
	log     *zap.Logger
}

func NewStockRequestHandler(s service.StockRequestService, log *zap.Logger) *StockRequestHandler {
	return &StockRequestHandler{service: s, log: namedOrNop(log, "stock_requests")}
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

func toResponses(requests []model.StockRequest) []model.StockRequestResponse {
	out := make([]model.StockRequestResponse, len(requests))
	for i := range requests {
		out[i] = requests[i].ToResponse()
	}
	return out
}

// GetStockRequests lists requests. Callers without the approve privilege only see their own.
// GET /api/v1/stock-requests?status=&priority=&product_id=&mine=true
func (h *StockRequestHandler) GetStockRequests(c *fiber.Ctx) error {
	var filter repository.StockRequestFilter

	if v := c.Query("status"); v != "" {
		status, err := model.ParseStatus(v)
		if err != nil {
			return badRequest(c, err.Error())
		}
		filter.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority, err := model.ParsePriority(v)
		if err != nil {
			return badRequest(c, err.Error())
		}
		filter.Priority = &priority
	}
	if v := c.Query("product_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return badRequest(c, "Invalid product ID")
		}
		filter.ProductID = &id
	}

	caller := currentCaller(c)
	privileges, _ := c.Locals(middleware.LocalPrivileges).([]string)
	canReview := caller.IsAdmin || contains(privileges, model.PrivStockRequestApprove)
	if !canReview || c.QueryBool("mine") {
		filter.RequestedByID = &caller.ID
	}

	requests, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toResponses(requests))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// GET /api/v1/stock-requests/:id
func (h *StockRequestHandler) GetStockRequest(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid stock request ID")
	}
	req, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(req.ToResponse())
}

// CreateStockRequest files a request on behalf of the authenticated user.
// POST /api/v1/stock-requests
func (h *StockRequestHandler) CreateStockRequest(c *fiber.Ctx) error {
	var in service.CreateStockRequestInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	in.RequestedByID = middleware.UserID(c)

	req, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Stock request created", "data": req.ToResponse()})
}

// PUT /api/v1/stock-requests/:id
func (h *StockRequestHandler) UpdateStockRequest(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid stock request ID")
	}
	var in service.UpdateStockRequestInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	req, err := h.service.Update(c.UserContext(), id, in, currentCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Stock request updated", "data": req.ToResponse()})
}

// DELETE /api/v1/stock-requests/:id
func (h *StockRequestHandler) DeleteStockRequest(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid stock request ID")
	}
	if err := h.service.Delete(c.UserContext(), id, currentCaller(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Stock request deleted"})
}

// PUT /api/v1/stock-requests/:id/approve
func (h *StockRequestHandler) ApproveStockRequest(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid stock request ID")
	}
	req, err := h.service.Approve(c.UserContext(), id, currentCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Stock request approved", "data": req.ToResponse()})
}

// PUT /api/v1/stock-requests/:id/reject
func (h *StockRequestHandler) RejectStockRequest(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid stock request ID")
	}
	var body RejectRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	req, err := h.service.Reject(c.UserContext(), id, currentCaller(c), body.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Stock request rejected", "data": req.ToResponse()})
}
