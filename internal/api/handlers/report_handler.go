package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/service"
)

type ReportHandler struct {
	reportService *service.ReportService
	logger        *zap.Logger
}

func NewReportHandler(reportService *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// Monthly godoc
// @Summary Monthly spending report
// @Description Per-category totals for the month plus a six month trend
// @Tags reports
// @Produce json
// @Param householdID path string true "Household ID"
// @Param month query string false "Month as YYYY-MM, defaults to current"
// @Security Bearer
// @Success 200 {object} dto.MonthlyReportResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/households/{householdID}/reports/monthly [get]
func (h *ReportHandler) Monthly(c *fiber.Ctx) error {
	householdID, err := getHouseholdID(c)
	if err != nil {
		return err
	}

	month := c.Query("month", time.Now().Format("2006-01"))
	report, err := h.reportService.Monthly(c.Context(), householdID, month)
	if err != nil {
		h.logger.Error("Failed to build report", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to build report",
		})
	}

	return c.JSON(report)
}

// Export godoc
// @Summary Export the monthly report as xlsx
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param householdID path string true "Household ID"
// @Param month query string false "Month as YYYY-MM, defaults to current"
// @Security Bearer
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/households/{householdID}/reports/monthly/export [get]
func (h *ReportHandler) Export(c *fiber.Ctx) error {
	householdID, err := getHouseholdID(c)
	if err != nil {
		return err
	}

	month := c.Query("month", time.Now().Format("2006-01"))
	data, err := h.reportService.ExportMonthly(c.Context(), householdID, month)
	if err != nil {
		h.logger.Error("Failed to export report", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to export report",
		})
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.xlsx"`, month))
	return c.Send(data)
}
