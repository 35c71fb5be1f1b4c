package dto

type CreateHouseholdRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type InviteMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type HouseholdResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	CreatedAt string `json:"created_at"`
}

type MemberResponse struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	JoinedAt string `json:"joined_at"`
}

type InvitationResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expires_at"`
	CreatedAt string `json:"created_at"`
}
