package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/dto"
	"github.com/yosuketsuboi/kakeibo-app/internal/service"
)

type CategoryHandler struct {
	categoryService *service.CategoryService
	logger          *zap.Logger
}

func NewCategoryHandler(categoryService *service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// List godoc
// @Summary List household categories
// @Tags categories
// @Produce json
// @Param householdID path string true "Household ID"
// @Security Bearer
// @Success 200 {array} dto.CategoryResponse
// @Router /api/v1/households/{householdID}/categories [get]
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	householdID, err := getHouseholdID(c)
	if err != nil {
		return err
	}

	categories, err := h.categoryService.List(c.Context(), householdID)
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list categories",
		})
	}

	return c.JSON(categories)
}

// Create godoc
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Param householdID path string true "Household ID"
// @Param request body dto.CreateCategoryRequest true "Category"
// @Security Bearer
// @Success 201 {object} dto.CategoryResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/households/{householdID}/categories [post]
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	householdID, err := getHouseholdID(c)
	if err != nil {
		return err
	}

	var req dto.CreateCategoryRequest
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

	resp, err := h.categoryService.Create(c.Context(), householdID, &req)
	if err != nil {
		h.logger.Error("Failed to create category", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create category",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Update godoc
// @Summary Update a category
// @Tags categories
// @Accept json
// @Produce json
// @Param householdID path string true "Household ID"
// @Param id path string true "Category ID"
// @Param request body dto.UpdateCategoryRequest true "Category"
// @Security Bearer
// @Success 200 {object} dto.CategoryResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/households/{householdID}/categories/{id} [put]
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	householdID, err := getHouseholdID(c)
	if err != nil {
		return err
	}
	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid category ID")
	}

	var req dto.UpdateCategoryRequest
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

	resp, err := h.categoryService.Update(c.Context(), householdID, categoryID, &req)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Category not found",
			})
		}
		h.logger.Error("Failed to update category", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update category",
		})
	}

	return c.JSON(resp)
}

// Delete godoc
// @Summary Delete a category
// @Description Items and expenses that referenced it become uncategorized
// @Tags categories
// @Produce json
// @Param householdID path string true "Household ID"
// @Param id path string true "Category ID"
// @Security Bearer
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/v1/households/{householdID}/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	householdID, err := getHouseholdID(c)
	if err != nil {
		return err
	}
	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid category ID")
	}

	if err := h.categoryService.Delete(c.Context(), householdID, categoryID); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Category not found",
			})
		}
		h.logger.Error("Failed to delete category", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete category",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
