package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/core"
	"github.com/yosuketsuboi/kakeibo-app/internal/dto"
	"github.com/yosuketsuboi/kakeibo-app/internal/service"
)

type ExpenseHandler struct {
	expenseService *service.ExpenseService
	logger         *zap.Logger
}

func NewExpenseHandler(expenseService *service.ExpenseService, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		logger:         logger,
	}
}

// List godoc
// @Summary List manual expenses for a month
// @Tags expenses
// @Produce json
// @Param householdID path string true "Household ID"
// @Param month query string false "Month as YYYY-MM, defaults to current"
// @Security Bearer
// @Success 200 {array} dto.ExpenseResponse
// @Router /api/v1/households/{householdID}/expenses [get]
func (h *ExpenseHandler) List(c *fiber.Ctx) error {
	householdID, err := getHouseholdID(c)
	if err != nil {
		return err
	}

	month := c.Query("month", time.Now().Format("2006-01"))
	start, end, err := core.MonthRange(month)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid month, expected YYYY-MM",
		})
	}

	expenses, err := h.expenseService.ListMonth(c.Context(), householdID, start, end)
	if err != nil {
		h.logger.Error("Failed to list expenses", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list expenses",
		})
	}

	return c.JSON(expenses)
}

// Create godoc
// @Summary Record a manual expense
// @Tags expenses
// @Accept json
// @Produce json
// @Param householdID path string true "Household ID"
// @Param request body dto.CreateExpenseRequest true "Expense"
// @Security Bearer
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/households/{householdID}/expenses [post]
func (h *ExpenseHandler) Create(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}
	householdID, err := getHouseholdID(c)
	if err != nil {
		return err
	}

	var req dto.CreateExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	resp, err := h.expenseService.Create(c.Context(), householdID, userID, &req)
	if err != nil {
		h.logger.Error("Failed to create expense", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create expense",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Update godoc
// @Summary Update a manual expense
// @Tags expenses
// @Accept json
// @Produce json
// @Param householdID path string true "Household ID"
// @Param id path string true "Expense ID"
// @Param request body dto.UpdateExpenseRequest true "Expense"
// @Security Bearer
// @Success 200 {object} dto.ExpenseResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/households/{householdID}/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *fiber.Ctx) error {
	householdID, err := getHouseholdID(c)
	if err != nil {
		return err
	}
	expenseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid expense ID")
	}

	var req dto.UpdateExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	resp, err := h.expenseService.Update(c.Context(), householdID, expenseID, &req)
	if err != nil {
		if errors.Is(err, service.ErrExpenseNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Expense not found",
			})
		}
		h.logger.Error("Failed to update expense", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update expense",
		})
	}

	return c.JSON(resp)
}

// Delete godoc
// @Summary Delete a manual expense
// @Tags expenses
// @Produce json
// @Param householdID path string true "Household ID"
// @Param id path string true "Expense ID"
// @Security Bearer
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/v1/households/{householdID}/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *fiber.Ctx) error {
	householdID, err := getHouseholdID(c)
	if err != nil {
		return err
	}
	expenseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid expense ID")
	}

	if err := h.expenseService.Delete(c.Context(), householdID, expenseID); err != nil {
		if errors.Is(err, service.ErrExpenseNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Expense not found",
			})
		}
		h.logger.Error("Failed to delete expense", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete expense",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
