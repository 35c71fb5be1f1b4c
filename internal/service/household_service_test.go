package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/dto"
	"github.com/yosuketsuboi/kakeibo-app/internal/models"
	"github.com/yosuketsuboi/kakeibo-app/pkg/mailer"
)

var errNoRows = errors.New("no rows in result set")

type fakeHouseholdStore struct {
	households  map[uuid.UUID]*models.Household
	members     map[uuid.UUID][]models.HouseholdMember
	invitations map[string]*models.Invitation

	created       *models.Household
	acceptedToken string
}

func newFakeHouseholdStore() *fakeHouseholdStore {
	return &fakeHouseholdStore{
		households:  make(map[uuid.UUID]*models.Household),
		members:     make(map[uuid.UUID][]models.HouseholdMember),
		invitations: make(map[string]*models.Invitation),
	}
}

func (f *fakeHouseholdStore) CreateWithOwner(_ context.Context, household *models.Household, ownerID uuid.UUID) error {
	f.created = household
	f.households[household.ID] = household
	f.members[household.ID] = append(f.members[household.ID], models.HouseholdMember{
		ID:          uuid.New(),
		HouseholdID: household.ID,
		UserID:      ownerID,
		Role:        models.RoleOwner,
		JoinedAt:    household.CreatedAt,
	})
	return nil
}

func (f *fakeHouseholdStore) GetByID(_ context.Context, id uuid.UUID) (*models.Household, error) {
	h, ok := f.households[id]
	if !ok {
		return nil, errNoRows
	}
	return h, nil
}

func (f *fakeHouseholdStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Household, error) {
	var out []*models.Household
	for id, members := range f.members {
		for _, m := range members {
			if m.UserID == userID {
				out = append(out, f.households[id])
			}
		}
	}
	return out, nil
}

func (f *fakeHouseholdStore) GetMember(_ context.Context, householdID, userID uuid.UUID) (*models.HouseholdMember, error) {
	for _, m := range f.members[householdID] {
		if m.UserID == userID {
			member := m
			return &member, nil
		}
	}
	return nil, errNoRows
}

func (f *fakeHouseholdStore) ListMembers(_ context.Context, householdID uuid.UUID) ([]models.HouseholdMember, error) {
	return f.members[householdID], nil
}

func (f *fakeHouseholdStore) CreateInvitation(_ context.Context, inv *models.Invitation) error {
	f.invitations[inv.Token] = inv
	return nil
}

func (f *fakeHouseholdStore) GetInvitationByToken(_ context.Context, token string) (*models.Invitation, error) {
	inv, ok := f.invitations[token]
	if !ok {
		return nil, errNoRows
	}
	return inv, nil
}

func (f *fakeHouseholdStore) AcceptInvitation(_ context.Context, inv *models.Invitation, userID uuid.UUID, now time.Time) error {
	f.acceptedToken = inv.Token
	inv.AcceptedAt = &now
	f.members[inv.HouseholdID] = append(f.members[inv.HouseholdID], models.HouseholdMember{
		ID:          uuid.New(),
		HouseholdID: inv.HouseholdID,
		UserID:      userID,
		Role:        models.RoleMember,
		JoinedAt:    now,
	})
	return nil
}

type fakeSeeder struct {
	seeded []uuid.UUID
	err    error
}

func (f *fakeSeeder) SeedDefaults(_ context.Context, householdID uuid.UUID) error {
	f.seeded = append(f.seeded, householdID)
	return f.err
}

func newHouseholdServiceForTest(store *fakeHouseholdStore, seeder *fakeSeeder) *HouseholdService {
	logger := zap.NewNop()
	m := mailer.New("", 0, "", "", "noreply@kakeibo.local", "http://localhost:3000", logger)
	return NewHouseholdService(store, seeder, m, logger)
}

func TestHouseholdCreateSetsOwnerAndSeedsDefaults(t *testing.T) {
	store := newFakeHouseholdStore()
	seeder := &fakeSeeder{}
	svc := newHouseholdServiceForTest(store, seeder)
	userID := uuid.New()

	resp, err := svc.Create(context.Background(), userID, &dto.CreateHouseholdRequest{Name: "我が家"})
	require.NoError(t, err)

	require.NotNil(t, store.created)
	assert.Equal(t, userID, store.created.CreatedBy)
	assert.Equal(t, "我が家", store.created.Name)
	assert.Equal(t, string(models.RoleOwner), resp.Role)

	require.Len(t, seeder.seeded, 1)
	assert.Equal(t, store.created.ID, seeder.seeded[0])

	members, err := svc.Members(context.Background(), store.created.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, userID.String(), members[0].UserID)
	assert.Equal(t, string(models.RoleOwner), members[0].Role)
	assert.NotEmpty(t, members[0].JoinedAt)
}

func TestHouseholdCreateSurvivesSeedFailure(t *testing.T) {
	store := newFakeHouseholdStore()
	seeder := &fakeSeeder{err: errors.New("insert failed")}
	svc := newHouseholdServiceForTest(store, seeder)

	resp, err := svc.Create(context.Background(), uuid.New(), &dto.CreateHouseholdRequest{Name: "我が家"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
}

func TestHouseholdInviteRequiresOwner(t *testing.T) {
	store := newFakeHouseholdStore()
	svc := newHouseholdServiceForTest(store, &fakeSeeder{})
	owner := uuid.New()
	stranger := uuid.New()

	created, err := svc.Create(context.Background(), owner, &dto.CreateHouseholdRequest{Name: "我が家"})
	require.NoError(t, err)
	householdID := uuid.MustParse(created.ID)

	_, err = svc.Invite(context.Background(), householdID, stranger, &dto.InviteMemberRequest{Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrNotAMember)

	// A plain member can see the household but not invite.
	store.members[householdID] = append(store.members[householdID], models.HouseholdMember{
		UserID: stranger, Role: models.RoleMember,
	})
	_, err = svc.Invite(context.Background(), householdID, stranger, &dto.InviteMemberRequest{Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrOwnerRequired)

	inv, err := svc.Invite(context.Background(), householdID, owner, &dto.InviteMemberRequest{Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", inv.Email)
	require.Len(t, store.invitations, 1)
	for token := range store.invitations {
		assert.Len(t, token, 64)
	}
}

func TestHouseholdAcceptInvitation(t *testing.T) {
	store := newFakeHouseholdStore()
	svc := newHouseholdServiceForTest(store, &fakeSeeder{})
	owner := uuid.New()
	invitee := uuid.New()

	created, err := svc.Create(context.Background(), owner, &dto.CreateHouseholdRequest{Name: "我が家"})
	require.NoError(t, err)
	householdID := uuid.MustParse(created.ID)

	_, err = svc.Invite(context.Background(), householdID, owner, &dto.InviteMemberRequest{Email: "a@example.com"})
	require.NoError(t, err)
	var token string
	for tkn := range store.invitations {
		token = tkn
	}

	resp, err := svc.Accept(context.Background(), invitee, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.ID)
	assert.Equal(t, string(models.RoleMember), resp.Role)
	assert.Equal(t, token, store.acceptedToken)

	// A second accept of the same token is gone.
	_, err = svc.Accept(context.Background(), uuid.New(), token)
	assert.ErrorIs(t, err, ErrInvitationInvalid)
}

func TestHouseholdAcceptRejectsExpiredAndMembers(t *testing.T) {
	store := newFakeHouseholdStore()
	svc := newHouseholdServiceForTest(store, &fakeSeeder{})
	owner := uuid.New()
	householdID := uuid.New()
	store.households[householdID] = &models.Household{ID: householdID, Name: "我が家", CreatedBy: owner}
	store.members[householdID] = []models.HouseholdMember{{UserID: owner, Role: models.RoleOwner}}

	store.invitations["expired"] = &models.Invitation{
		ID:          uuid.New(),
		HouseholdID: householdID,
		Token:       "expired",
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
	_, err := svc.Accept(context.Background(), uuid.New(), "expired")
	assert.ErrorIs(t, err, ErrInvitationInvalid)

	store.invitations["live"] = &models.Invitation{
		ID:          uuid.New(),
		HouseholdID: householdID,
		Token:       "live",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	_, err = svc.Accept(context.Background(), owner, "live")
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = svc.Accept(context.Background(), uuid.New(), "missing")
	assert.ErrorIs(t, err, ErrInvitationInvalid)
}

func TestHouseholdMembership(t *testing.T) {
	store := newFakeHouseholdStore()
	svc := newHouseholdServiceForTest(store, &fakeSeeder{})
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, &dto.CreateHouseholdRequest{Name: "我が家"})
	require.NoError(t, err)
	householdID := uuid.MustParse(created.ID)

	assert.NoError(t, svc.Membership(context.Background(), householdID, owner))
	assert.ErrorIs(t, svc.Membership(context.Background(), householdID, uuid.New()), ErrNotAMember)
}
