package models

// CollectionResponse wraps list responses
type CollectionResponse struct {
	Items interface{} `json:"items"`
	Count int         `json:"count"`
}

// AssignCollectorMode selects how a collector is bound during role assignment
type AssignCollectorMode string

const (
	AssignCollectorModeNew      AssignCollectorMode = "new"
	AssignCollectorModeExisting AssignCollectorMode = "existing"
)

// ToggleRoleRequest represents a request to toggle a role on a profile
type ToggleRoleRequest struct {
	Role Role `json:"role"`
}

// AssignCollectorRequest represents a request to grant the collector role.
// Mode "new" creates a collector record from Name; mode "existing" binds the
// profile to CollectorID.
type AssignCollectorRequest struct {
	Mode        AssignCollectorMode `json:"mode"`
	Name        string              `json:"name,omitempty"`
	CollectorID string              `json:"collectorId,omitempty"`
}

// ProfileResponse represents a profile in API responses
type ProfileResponse struct {
	ID          string  `json:"id"`
	FullName    string  `json:"fullName"`
	Email       string  `json:"email"`
	Role        RoleSet `json:"role"`
	CollectorID *string `json:"collectorId,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// ProfileListResponse represents a page of profiles
type ProfileListResponse struct {
	Items      []ProfileResponse `json:"items"`
	TotalCount int64             `json:"totalCount"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
}

// CollectorResponse represents a collector in API responses
type CollectorResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Prefix    string  `json:"prefix"`
	Number    int     `json:"number"`
	Code      string  `json:"code"`
	Active    bool    `json:"active"`
	ProfileID *string `json:"profileId,omitempty"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// UpdateCollectorRequest represents a request to update a collector
type UpdateCollectorRequest struct {
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// ListMembersRequest captures the listing parameters. Page is 0-based; the
// page size is fixed at MembersPageSize.
type ListMembersRequest struct {
	Page       int    `json:"page"`
	SearchTerm string `json:"searchTerm"`
}

// MemberResponse represents a member in API responses
type MemberResponse struct {
	ID              string  `json:"id"`
	MemberNumber    string  `json:"memberNumber"`
	FullName        string  `json:"fullName"`
	Email           string  `json:"email,omitempty"`
	Address         string  `json:"address,omitempty"`
	Town            string  `json:"town,omitempty"`
	Postcode        string  `json:"postcode,omitempty"`
	Phone           string  `json:"phone,omitempty"`
	DateOfBirth     string  `json:"dateOfBirth,omitempty"`
	MaritalStatus   string  `json:"maritalStatus,omitempty"`
	Gender          string  `json:"gender,omitempty"`
	Status          string  `json:"status"`
	PasswordChanged bool    `json:"passwordChanged"`
	CollectorID     *string `json:"collectorId,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// MemberListResponse represents a page of members
type MemberListResponse struct {
	Items      []MemberResponse `json:"items"`
	TotalCount int64            `json:"totalCount"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
}

// CreateMemberRequest represents an admin provisioning a new member. The
// member receives an identity provider account keyed by the synthetic
// member-number address and must change InitialPassword on first login.
type CreateMemberRequest struct {
	MemberNumber    string `json:"memberNumber"`
	FullName        string `json:"fullName"`
	Email           string `json:"email,omitempty"`
	InitialPassword string `json:"initialPassword"`
}

// MemberAccountResponse represents a member's identity provider account
type MemberAccountResponse struct {
	MemberID       string `json:"memberId"`
	ProviderUserID string `json:"providerUserId"`
	Email          string `json:"email"`
	FullName       string `json:"fullName"`
}

// UpdateMemberRequest represents the self-service member update payload
type UpdateMemberRequest struct {
	Email         *string `json:"email,omitempty"`
	Address       *string `json:"address,omitempty"`
	Town          *string `json:"town,omitempty"`
	Postcode      *string `json:"postcode,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	MaritalStatus *string `json:"maritalStatus,omitempty"`
	Gender        *string `json:"gender,omitempty"`
}

// LoginRequest represents a member-number login
type LoginRequest struct {
	MemberNumber string `json:"memberNumber"`
	Password     string `json:"password"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	AccessToken     string `json:"accessToken"`
	TokenType       string `json:"tokenType"`
	ExpiresIn       int    `json:"expiresIn"`
	MemberID        string `json:"memberId"`
	PasswordChanged bool   `json:"passwordChanged"`
}

// ChangePasswordRequest represents a password change for the calling member
type ChangePasswordRequest struct {
	MemberNumber string `json:"memberNumber"`
	NewPassword  string `json:"newPassword"`
}

// CreateTicketRequest represents a request to open a support ticket
type CreateTicketRequest struct {
	Subject     string         `json:"subject"`
	Description string         `json:"description"`
	Priority    TicketPriority `json:"priority,omitempty"`
}

// UpdateTicketRequest represents a ticket status update
type UpdateTicketRequest struct {
	Status TicketStatus `json:"status"`
}

// CreateTicketResponseRequest represents a message posted on a ticket
type CreateTicketResponseRequest struct {
	Message string `json:"message"`
}

// TicketResponseView represents a ticket response joined with responder info
type TicketResponseView struct {
	ID            string  `json:"id"`
	TicketID      string  `json:"ticketId"`
	ResponderID   string  `json:"responderId"`
	ResponderName string  `json:"responderName"`
	ResponderRole RoleSet `json:"responderRole"`
	Message       string  `json:"message"`
	CreatedAt     string  `json:"createdAt"`
}

// TicketView represents a ticket in API responses
type TicketView struct {
	ID          string         `json:"id"`
	MemberID    string         `json:"memberId"`
	Subject     string         `json:"subject"`
	Description string         `json:"description"`
	Status      TicketStatus   `json:"status"`
	Priority    TicketPriority `json:"priority"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
}
