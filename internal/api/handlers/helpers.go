package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, ok := c.Locals("userID").(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}

// getHouseholdID reads the household resolved by the household
// middleware.
func getHouseholdID(c *fiber.Ctx) (uuid.UUID, error) {
	householdID, ok := c.Locals("householdID").(uuid.UUID)
	if !ok {
		return uuid.Nil, fiber.ErrForbidden
	}
	return householdID, nil
}
