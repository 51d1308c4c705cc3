package handler

import (
	"go-stock-tracker/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	service service.CategoryService
	log     *zap.Logger
}

func NewCategoryHandler(s service.CategoryService, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{service: s, log: namedOrNop(log, "categories")}
}

func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(categories)
}

func (h *CategoryHandler) GetCategory(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid category ID")
	}
	category, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(category)
}

func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var in service.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	category, err := h.service.Create(c.UserContext(), in, currentCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Category created", "data": category})
}

func (h *CategoryHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid category ID")
	}
	var in service.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	category, err := h.service.Update(c.UserContext(), id, in, currentCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Category updated", "data": category})
}

func (h *CategoryHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid category ID")
	}
	if err := h.service.Delete(c.UserContext(), id, currentCaller(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted"})
}
