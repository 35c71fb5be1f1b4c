package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/dto"
	"github.com/yosuketsuboi/kakeibo-app/internal/models"
	"github.com/yosuketsuboi/kakeibo-app/pkg/mailer"
)

var (
	ErrHouseholdNotFound = errors.New("household not found")
	ErrNotAMember        = errors.New("not a member of this household")
	ErrOwnerRequired     = errors.New("owner role required")
	ErrInvitationInvalid = errors.New("invitation is invalid or expired")
	ErrAlreadyMember     = errors.New("already a member")
)

const invitationTTL = 7 * 24 * time.Hour

type householdStore interface {
	CreateWithOwner(ctx context.Context, household *models.Household, ownerID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Household, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Household, error)
	GetMember(ctx context.Context, householdID, userID uuid.UUID) (*models.HouseholdMember, error)
	ListMembers(ctx context.Context, householdID uuid.UUID) ([]models.HouseholdMember, error)
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error)
	AcceptInvitation(ctx context.Context, inv *models.Invitation, userID uuid.UUID, now time.Time) error
}

type categorySeeder interface {
	SeedDefaults(ctx context.Context, householdID uuid.UUID) error
}

type HouseholdService struct {
	householdRepo householdStore
	categorySvc   categorySeeder
	mailer        *mailer.Mailer
	logger        *zap.Logger
}

func NewHouseholdService(
	householdRepo householdStore,
	categorySvc categorySeeder,
	m *mailer.Mailer,
	logger *zap.Logger,
) *HouseholdService {
	return &HouseholdService{
		householdRepo: householdRepo,
		categorySvc:   categorySvc,
		mailer:        m,
		logger:        logger,
	}
}

// Create sets up a household with its owner membership and the default
// category set.
func (s *HouseholdService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateHouseholdRequest) (*dto.HouseholdResponse, error) {
	household := &models.Household{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedBy: userID,
		CreatedAt: time.Now(),
	}

	if err := s.householdRepo.CreateWithOwner(ctx, household, userID); err != nil {
		return nil, err
	}

	if err := s.categorySvc.SeedDefaults(ctx, household.ID); err != nil {
		s.logger.Error("failed to seed default categories",
			zap.String("household_id", household.ID.String()),
			zap.Error(err))
	}

	return &dto.HouseholdResponse{
		ID:        household.ID.String(),
		Name:      household.Name,
		Role:      string(models.RoleOwner),
		CreatedAt: household.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *HouseholdService) ListForUser(ctx context.Context, userID uuid.UUID) ([]dto.HouseholdResponse, error) {
	households, err := s.householdRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.HouseholdResponse, len(households))
	for i, h := range households {
		responses[i] = dto.HouseholdResponse{
			ID:        h.ID.String(),
			Name:      h.Name,
			CreatedAt: h.CreatedAt.Format(time.RFC3339),
		}
	}
	return responses, nil
}

func (s *HouseholdService) Members(ctx context.Context, householdID uuid.UUID) ([]dto.MemberResponse, error) {
	members, err := s.householdRepo.ListMembers(ctx, householdID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.MemberResponse, len(members))
	for i, m := range members {
		responses[i] = dto.MemberResponse{
			UserID:   m.UserID.String(),
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt.Format(time.RFC3339),
		}
	}
	return responses, nil
}

// Invite mails a join link. Only the household owner can invite.
func (s *HouseholdService) Invite(ctx context.Context, householdID, invitedBy uuid.UUID, req *dto.InviteMemberRequest) (*dto.InvitationResponse, error) {
	member, err := s.householdRepo.GetMember(ctx, householdID, invitedBy)
	if err != nil {
		return nil, ErrNotAMember
	}
	if member.Role != models.RoleOwner {
		return nil, ErrOwnerRequired
	}

	household, err := s.householdRepo.GetByID(ctx, householdID)
	if err != nil {
		return nil, ErrHouseholdNotFound
	}

	token, err := newInvitationToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inv := &models.Invitation{
		ID:          uuid.New(),
		HouseholdID: householdID,
		Email:       req.Email,
		Token:       token,
		InvitedBy:   invitedBy,
		ExpiresAt:   now.Add(invitationTTL),
		CreatedAt:   now,
	}
	if err := s.householdRepo.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}

	if err := s.mailer.SendInvitation(req.Email, household.Name, token); err != nil {
		s.logger.Error("failed to send invitation mail",
			zap.String("invitation_id", inv.ID.String()),
			zap.Error(err))
	}

	return &dto.InvitationResponse{
		ID:        inv.ID.String(),
		Email:     inv.Email,
		ExpiresAt: inv.ExpiresAt.Format(time.RFC3339),
		CreatedAt: inv.CreatedAt.Format(time.RFC3339),
	}, nil
}

// Accept joins the caller to the invitation's household.
func (s *HouseholdService) Accept(ctx context.Context, userID uuid.UUID, token string) (*dto.HouseholdResponse, error) {
	inv, err := s.householdRepo.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, ErrInvitationInvalid
	}
	if inv.AcceptedAt != nil || time.Now().After(inv.ExpiresAt) {
		return nil, ErrInvitationInvalid
	}
	if _, err := s.householdRepo.GetMember(ctx, inv.HouseholdID, userID); err == nil {
		return nil, ErrAlreadyMember
	}

	if err := s.householdRepo.AcceptInvitation(ctx, inv, userID, time.Now()); err != nil {
		return nil, err
	}

	household, err := s.householdRepo.GetByID(ctx, inv.HouseholdID)
	if err != nil {
		return nil, ErrHouseholdNotFound
	}

	return &dto.HouseholdResponse{
		ID:        household.ID.String(),
		Name:      household.Name,
		Role:      string(models.RoleMember),
		CreatedAt: household.CreatedAt.Format(time.RFC3339),
	}, nil
}

// Membership verifies the user belongs to the household. The household
// middleware calls this before any household-scoped handler runs.
func (s *HouseholdService) Membership(ctx context.Context, householdID, userID uuid.UUID) error {
	if _, err := s.householdRepo.GetMember(ctx, householdID, userID); err != nil {
		return ErrNotAMember
	}
	return nil
}

func newInvitationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
