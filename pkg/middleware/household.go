package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MembershipChecker reports whether a user belongs to a household.
type MembershipChecker interface {
	Membership(ctx context.Context, householdID, userID uuid.UUID) error
}

// HouseholdMiddleware resolves the :householdID route parameter, verifies
// that the authenticated user is a member, and stores the household ID in
// the request context for downstream handlers.
func HouseholdMiddleware(checker MembershipChecker, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		householdID, err := uuid.Parse(c.Params("householdID"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid household ID",
			})
		}

		userIDStr, ok := c.Locals("userID").(string)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if err := checker.Membership(c.Context(), householdID, userID); err != nil {
			logger.Warn("Household access denied",
				zap.String("household_id", householdID.String()),
				zap.String("user_id", userID.String()))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Not a member of this household",
			})
		}

		c.Locals("householdID", householdID)
		return c.Next()
	}
}
