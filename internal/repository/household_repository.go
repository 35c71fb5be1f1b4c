package repository

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/models"
)

type HouseholdRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewHouseholdRepository(db *pgxpool.Pool, logger *zap.Logger) *HouseholdRepository {
	return &HouseholdRepository{
		db:     db,
		logger: logger,
	}
}

// CreateWithOwner inserts the household and its owner membership in one
// transaction so a household never exists without an owner.
func (r *HouseholdRepository) CreateWithOwner(ctx context.Context, household *models.Household, ownerID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	insert := squirrel.Insert("households").
		Columns("id", "name", "created_by", "created_at").
		Values(household.ID, household.Name, household.CreatedBy, household.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := insert.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}

	member := squirrel.Insert("household_members").
		Columns("id", "household_id", "user_id", "role", "joined_at").
		Values(uuid.New(), household.ID, ownerID, models.RoleOwner, household.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err = member.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *HouseholdRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Household, error) {
	query := squirrel.Select("id", "name", "created_by", "created_at").
		From("households").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var household models.Household
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&household.ID, &household.Name, &household.CreatedBy, &household.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &household, nil
}

func (r *HouseholdRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Household, error) {
	query := squirrel.Select("h.id", "h.name", "h.created_by", "h.created_at").
		From("households h").
		Join("household_members m ON m.household_id = h.id").
		Where(squirrel.Eq{"m.user_id": userID}).
		OrderBy("h.created_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var households []*models.Household
	for rows.Next() {
		var household models.Household
		if err := rows.Scan(
			&household.ID, &household.Name, &household.CreatedBy, &household.CreatedAt,
		); err != nil {
			return nil, err
		}
		households = append(households, &household)
	}

	return households, rows.Err()
}

func (r *HouseholdRepository) GetMember(ctx context.Context, householdID, userID uuid.UUID) (*models.HouseholdMember, error) {
	query := squirrel.Select("id", "household_id", "user_id", "role", "joined_at").
		From("household_members").
		Where(squirrel.Eq{"household_id": householdID, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var member models.HouseholdMember
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&member.ID, &member.HouseholdID, &member.UserID, &member.Role, &member.JoinedAt,
	)
	if err != nil {
		return nil, err
	}

	return &member, nil
}

func (r *HouseholdRepository) ListMembers(ctx context.Context, householdID uuid.UUID) ([]models.HouseholdMember, error) {
	query := squirrel.Select("id", "household_id", "user_id", "role", "joined_at").
		From("household_members").
		Where(squirrel.Eq{"household_id": householdID}).
		OrderBy("joined_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.HouseholdMember
	for rows.Next() {
		var member models.HouseholdMember
		if err := rows.Scan(
			&member.ID, &member.HouseholdID, &member.UserID, &member.Role, &member.JoinedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

func (r *HouseholdRepository) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	query := squirrel.Insert("invitations").
		Columns("id", "household_id", "email", "token", "invited_by", "accepted_at", "expires_at", "created_at").
		Values(inv.ID, inv.HouseholdID, inv.Email, inv.Token, inv.InvitedBy, inv.AcceptedAt, inv.ExpiresAt, inv.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *HouseholdRepository) GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	query := squirrel.Select("id", "household_id", "email", "token", "invited_by", "accepted_at", "expires_at", "created_at").
		From("invitations").
		Where(squirrel.Eq{"token": token}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var inv models.Invitation
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&inv.ID, &inv.HouseholdID, &inv.Email, &inv.Token, &inv.InvitedBy, &inv.AcceptedAt, &inv.ExpiresAt, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &inv, nil
}

// AcceptInvitation stamps the invitation and adds the membership
// atomically.
func (r *HouseholdRepository) AcceptInvitation(ctx context.Context, inv *models.Invitation, userID uuid.UUID, now time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	update := squirrel.Update("invitations").
		Set("accepted_at", now).
		Where(squirrel.Eq{"id": inv.ID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := update.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}

	member := squirrel.Insert("household_members").
		Columns("id", "household_id", "user_id", "role", "joined_at").
		Values(uuid.New(), inv.HouseholdID, userID, models.RoleMember, now).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err = member.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
