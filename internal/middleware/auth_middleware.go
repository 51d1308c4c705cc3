package middleware

import (
	"strings"

	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Locals keys set by RequireAuth
const (
	LocalUserID         = "user_id"
	LocalUserEmail      = "user_email"
	LocalUserName       = "user_name"
	LocalUserRole       = "user_role"
	LocalIsAdmin        = "user_is_admin"
	LocalIsPrimaryAdmin = "user_is_primary_admin"
	LocalPrivileges     = "user_privileges"
)

// RequireAuth validates the bearer token and loads the user so that role and
// privilege changes apply to the next request, not the next login.
func RequireAuth(tokens *jwt.Manager, userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		user, err := userRepo.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
		}
		if !user.IsActive {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User account is inactive"})
		}
		if user.TokenVersion != claims.TokenVersion {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Session expired (logged in on another device)"})
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalUserEmail, user.Email)
		c.Locals(LocalUserName, user.FullName())
		c.Locals(LocalUserRole, user.RoleCode())
		c.Locals(LocalIsAdmin, user.IsAdmin())
		c.Locals(LocalIsPrimaryAdmin, user.IsPrimaryAdmin)
		c.Locals(LocalPrivileges, user.GetPrivilegeCodes())

		return c.Next()
	}
}

// UserID returns the authenticated user's id, or uuid.Nil outside RequireAuth.
func UserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(LocalUserID).(uuid.UUID)
	return id
}

func hasPrivilege(c *fiber.Ctx, required ...string) (bool, bool) {
	privileges, ok := c.Locals(LocalPrivileges).([]string)
	if !ok {
		return false, false
	}
	for _, p := range privileges {
		for _, r := range required {
			if p == r {
				return true, true
			}
		}
	}
	return false, true
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		found, ok := hasPrivilege(c, requiredPrivilege)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No privileges found"})
		}
		if !found {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
			})
		}
		return c.Next()
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		found, ok := hasPrivilege(c, requiredPrivileges...)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No privileges found"})
		}
		if !found {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: requires one of " + strings.Join(requiredPrivileges, ", ") + " privileges",
			})
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isAdmin, _ := c.Locals(LocalIsAdmin).(bool); !isAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: requires the " + model.RoleAdmin + " role"})
		}
		return c.Next()
	}
}

// RequirePrimaryAdmin guards admin-role management.
func RequirePrimaryAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if primary, _ := c.Locals(LocalIsPrimaryAdmin).(bool); !primary {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: primary administrator only"})
		}
		return c.Next()
	}
}
