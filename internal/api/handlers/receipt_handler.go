package handlers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/dto"
	"github.com/yosuketsuboi/kakeibo-app/internal/service"
)

type ReceiptHandler struct {
	receiptService *service.ReceiptService
	logger         *zap.Logger
}

func NewReceiptHandler(receiptService *service.ReceiptService, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
		logger:         logger,
	}
}

// Upload godoc
// @Summary Upload a receipt photo
// @Description Compresses and stores the photo, creates a pending receipt and queues extraction
// @Tags receipts
// @Accept multipart/form-data
// @Produce json
// @Param householdID path string true "Household ID"
// @Param file formData file true "Receipt image"
// @Security Bearer
// @Success 201 {object} dto.ReceiptResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/households/{householdID}/receipts [post]
func (h *ReceiptHandler) Upload(c *fiber.Ctx) error {
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

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	resp, err := h.receiptService.Upload(c.Context(), householdID, userID, file.Filename, data)
	if err != nil {
		if errors.Is(err, service.ErrInvalidImage) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unsupported or corrupt image",
			})
		}
		h.logger.Error("Failed to upload receipt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upload receipt",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// List godoc
// @Summary List receipts
// @Tags receipts
// @Produce json
// @Param householdID path string true "Household ID"
// @Param limit query int false "Limit" default(50)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {array} dto.ReceiptResponse
// @Router /api/v1/households/{householdID}/receipts [get]
func (h *ReceiptHandler) List(c *fiber.Ctx) error {
	householdID, err := getHouseholdID(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	receipts, err := h.receiptService.List(c.Context(), householdID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list receipts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list receipts",
		})
	}

	return c.JSON(receipts)
}

// Detail godoc
// @Summary Receipt detail with reconciliation view
// @Description Items, per-category subtotals, mismatch and truncation warnings
// @Tags receipts
// @Produce json
// @Param householdID path string true "Household ID"
// @Param id path string true "Receipt ID"
// @Security Bearer
// @Success 200 {object} dto.ReceiptDetailResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/households/{householdID}/receipts/{id} [get]
func (h *ReceiptHandler) Detail(c *fiber.Ctx) error {
	householdID, receiptID, err := h.ids(c)
	if err != nil {
		return err
	}

	detail, err := h.receiptService.GetDetail(c.Context(), householdID, receiptID)
	if err != nil {
		return h.serviceError(c, err, "Failed to load receipt")
	}

	return c.JSON(detail)
}

// Save godoc
// @Summary Save manual receipt edits
// @Description Replaces the header and the whole item list, forces status done
// @Tags receipts
// @Accept json
// @Produce json
// @Param householdID path string true "Household ID"
// @Param id path string true "Receipt ID"
// @Param request body dto.SaveReceiptRequest true "Receipt data"
// @Security Bearer
// @Success 200 {object} dto.ReceiptDetailResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/households/{householdID}/receipts/{id} [put]
func (h *ReceiptHandler) Save(c *fiber.Ctx) error {
	householdID, receiptID, err := h.ids(c)
	if err != nil {
		return err
	}

	var req dto.SaveReceiptRequest
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

	detail, err := h.receiptService.Save(c.Context(), householdID, receiptID, &req)
	if err != nil {
		return h.serviceError(c, err, "Failed to save receipt")
	}

	return c.JSON(detail)
}

// Reprocess godoc
// @Summary Queue the receipt for extraction again
// @Description Clears extracted items and publishes a new extraction trigger
// @Tags receipts
// @Produce json
// @Param householdID path string true "Household ID"
// @Param id path string true "Receipt ID"
// @Security Bearer
// @Success 202 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/households/{householdID}/receipts/{id}/reprocess [post]
func (h *ReceiptHandler) Reprocess(c *fiber.Ctx) error {
	householdID, receiptID, err := h.ids(c)
	if err != nil {
		return err
	}

	if err := h.receiptService.Reprocess(c.Context(), householdID, receiptID); err != nil {
		return h.serviceError(c, err, "Failed to queue reprocess")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "queued",
	})
}

// Delete godoc
// @Summary Delete a receipt
// @Tags receipts
// @Produce json
// @Param householdID path string true "Household ID"
// @Param id path string true "Receipt ID"
// @Security Bearer
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/v1/households/{householdID}/receipts/{id} [delete]
func (h *ReceiptHandler) Delete(c *fiber.Ctx) error {
	householdID, receiptID, err := h.ids(c)
	if err != nil {
		return err
	}

	if err := h.receiptService.Delete(c.Context(), householdID, receiptID); err != nil {
		return h.serviceError(c, err, "Failed to delete receipt")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ReceiptHandler) ids(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	householdID, err := getHouseholdID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	receiptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid receipt ID")
	}
	return householdID, receiptID, nil
}

func (h *ReceiptHandler) serviceError(c *fiber.Ctx, err error, msg string) error {
	if errors.Is(err, service.ErrReceiptNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Receipt not found",
		})
	}
	h.logger.Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": msg,
	})
}
