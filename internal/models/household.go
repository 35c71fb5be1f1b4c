package models

import (
	"time"

	"github.com/google/uuid"
)

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

// Household is the account boundary. All financial data is scoped to
// exactly one household.
type Household struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedBy uuid.UUID `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
}

type HouseholdMember struct {
	ID          uuid.UUID  `db:"id"`
	HouseholdID uuid.UUID  `db:"household_id"`
	UserID      uuid.UUID  `db:"user_id"`
	Role        MemberRole `db:"role"`
	JoinedAt    time.Time  `db:"joined_at"`
}

type Invitation struct {
	ID          uuid.UUID  `db:"id"`
	HouseholdID uuid.UUID  `db:"household_id"`
	Email       string     `db:"email"`
	Token       string     `db:"token"`
	InvitedBy   uuid.UUID  `db:"invited_by"`
	AcceptedAt  *time.Time `db:"accepted_at"`
	ExpiresAt   time.Time  `db:"expires_at"`
	CreatedAt   time.Time  `db:"created_at"`
}
