package handler

import (
	"time"

	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	service service.InventoryService
	log     *zap.Logger
}

func NewInventoryHandler(s service.InventoryService, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{service: s, log: namedOrNop(log, "inventory")}
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var in service.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.service.CreateProduct(c.UserContext(), in, currentCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	var in service.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	updated, err := h.service.UpdateProduct(c.UserContext(), id, in, currentCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	if err := h.service.DeleteProduct(c.UserContext(), id, currentCaller(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// GetProducts supports ?search=&category_id=&page=&page_size=
func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	filter := repository.ProductFilter{
		Search:   c.Query("search"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", repository.DefaultPageSize),
	}
	if v := c.Query("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return badRequest(c, "Invalid category ID")
		}
		filter.CategoryID = &id
	}

	page, err := h.service.ListProducts(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(page)
}

func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(product)
}

func (h *InventoryHandler) GetLowStockProducts(c *fiber.Ctx) error {
	products, err := h.service.GetLowStockProducts(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(products)
}

func (h *InventoryHandler) CreateTransaction(c *fiber.Ctx) error {
	var in service.RecordTransactionInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	tx, err := h.service.RecordTransaction(c.UserContext(), in, currentCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transaction recorded", "data": tx})
}

// GetTransactions supports ?product_id=&type=IN|OUT&from=&to= (RFC 3339 or YYYY-MM-DD) and paging.
func (h *InventoryHandler) GetTransactions(c *fiber.Ctx) error {
	filter := repository.TransactionFilter{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", repository.DefaultPageSize),
	}
	if v := c.Query("product_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return badRequest(c, "Invalid product ID")
		}
		filter.ProductID = &id
	}
	if v := c.Query("type"); v != "" {
		t := model.TransactionType(v)
		filter.Type = &t
	}
	var err error
	if filter.From, err = parseTimeQuery(c.Query("from"), false); err != nil {
		return badRequest(c, "Invalid from date")
	}
	if filter.To, err = parseTimeQuery(c.Query("to"), true); err != nil {
		return badRequest(c, "Invalid to date")
	}

	page, err := h.service.ListTransactions(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(page)
}

// parseTimeQuery accepts a timestamp or a bare date; a bare end date covers the whole day.
func parseTimeQuery(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func (h *InventoryHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid transaction ID")
	}
	tx, err := h.service.GetTransaction(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(tx)
}

func (h *InventoryHandler) GetStockReport(c *fiber.Ctx) error {
	rows, err := h.service.GetStockReport(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"generated_at": time.Now(), "data": rows})
}
