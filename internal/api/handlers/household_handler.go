package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/dto"
	"github.com/yosuketsuboi/kakeibo-app/internal/service"
)

type HouseholdHandler struct {
	householdService *service.HouseholdService
	logger           *zap.Logger
}

func NewHouseholdHandler(householdService *service.HouseholdService, logger *zap.Logger) *HouseholdHandler {
	return &HouseholdHandler{
		householdService: householdService,
		logger:           logger,
	}
}

// Create godoc
// @Summary Create a household
// @Description Creates a household with the caller as owner and seeds default categories
// @Tags households
// @Accept json
// @Produce json
// @Param request body dto.CreateHouseholdRequest true "Household"
// @Security Bearer
// @Success 201 {object} dto.HouseholdResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/households [post]
func (h *HouseholdHandler) Create(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.CreateHouseholdRequest
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

	resp, err := h.householdService.Create(c.Context(), userID, &req)
	if err != nil {
		h.logger.Error("Failed to create household", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create household",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// List godoc
// @Summary List the caller's households
// @Tags households
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.HouseholdResponse
// @Router /api/v1/households [get]
func (h *HouseholdHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	households, err := h.householdService.ListForUser(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list households", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list households",
		})
	}

	return c.JSON(households)
}

// Members godoc
// @Summary List household members
// @Tags households
// @Produce json
// @Param householdID path string true "Household ID"
// @Security Bearer
// @Success 200 {array} dto.MemberResponse
// @Router /api/v1/households/{householdID}/members [get]
func (h *HouseholdHandler) Members(c *fiber.Ctx) error {
	householdID, err := getHouseholdID(c)
	if err != nil {
		return err
	}

	members, err := h.householdService.Members(c.Context(), householdID)
	if err != nil {
		h.logger.Error("Failed to list members", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list members",
		})
	}

	return c.JSON(members)
}

// Invite godoc
// @Summary Invite a member by email
// @Description Creates an invitation and mails a join link, owner only
// @Tags households
// @Accept json
// @Produce json
// @Param householdID path string true "Household ID"
// @Param request body dto.InviteMemberRequest true "Invitation"
// @Security Bearer
// @Success 201 {object} dto.InvitationResponse
// @Failure 403 {object} map[string]string
// @Router /api/v1/households/{householdID}/invitations [post]
func (h *HouseholdHandler) Invite(c *fiber.Ctx) error {
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

	var req dto.InviteMemberRequest
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

	resp, err := h.householdService.Invite(c.Context(), householdID, userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrOwnerRequired) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Only the owner can invite members",
			})
		}
		h.logger.Error("Failed to create invitation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create invitation",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Accept godoc
// @Summary Accept an invitation
// @Tags households
// @Produce json
// @Param token path string true "Invitation token"
// @Security Bearer
// @Success 200 {object} dto.HouseholdResponse
// @Failure 410 {object} map[string]string
// @Router /api/v1/invitations/{token}/accept [post]
func (h *HouseholdHandler) Accept(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	token := c.Params("token")
	resp, err := h.householdService.Accept(c.Context(), userID, token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvitationInvalid):
			return c.Status(fiber.StatusGone).JSON(fiber.Map{
				"error": "Invitation is invalid or expired",
			})
		case errors.Is(err, service.ErrAlreadyMember):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Already a member",
			})
		}
		h.logger.Error("Failed to accept invitation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to accept invitation",
		})
	}

	return c.JSON(resp)
}
