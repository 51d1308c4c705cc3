package handler

import (
	"go-stock-tracker/internal/apperror"
	"go-stock-tracker/internal/middleware"
	"go-stock-tracker/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var statusByKind = map[apperror.Kind]int{
	apperror.KindNotFound:          fiber.StatusNotFound,
	apperror.KindInvalidArgument:   fiber.StatusBadRequest,
	apperror.KindInvalidState:      fiber.StatusConflict,
	apperror.KindInsufficientStock: fiber.StatusUnprocessableEntity,
	apperror.KindForbidden:         fiber.StatusForbidden,
	apperror.KindUnauthorized:      fiber.StatusUnauthorized,
	apperror.KindConflict:          fiber.StatusConflict,
}

// respondError writes err as {"error", "code"} with the status for its kind.
// Anything that is not an *apperror.Error is logged and hidden behind a 500.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind == apperror.KindInternal {
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal Server Error",
			"code":  apperror.KindInternal,
		})
	}

	status, known := statusByKind[appErr.Kind]
	if !known {
		status = fiber.StatusInternalServerError
	}
	body := fiber.Map{"error": appErr.Error(), "code": appErr.Kind}
	if appErr.Kind == apperror.KindInsufficientStock {
		body["available"] = appErr.Available
		body["requested"] = appErr.Requested
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message, "code": apperror.KindInvalidArgument})
}

func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// currentCaller builds the service identity from the locals set by RequireAuth.
func currentCaller(c *fiber.Ctx) service.Caller {
	name, _ := c.Locals(middleware.LocalUserName).(string)
	isAdmin, _ := c.Locals(middleware.LocalIsAdmin).(bool)
	primary, _ := c.Locals(middleware.LocalIsPrimaryAdmin).(bool)
	return service.Caller{
		ID:             middleware.UserID(c),
		Name:           name,
		IsAdmin:        isAdmin,
		IsPrimaryAdmin: primary,
	}
}

func namedOrNop(log *zap.Logger, name string) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log.Named(name)
}
