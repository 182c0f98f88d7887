package models

import (
	"fmt"
	"time"
)

// Profile represents the profiles table. The ID is the user id issued by the
// identity provider, so a profile row exists for every signed-in principal.
type Profile struct {
	ID          string  `gorm:"primarykey;column:id" json:"id"`
	FullName    string  `gorm:"column:full_name" json:"fullName"`
	Email       string  `gorm:"column:email" json:"email"`
	Role        RoleSet `gorm:"column:role;type:text" json:"role"`
	CollectorID *string `gorm:"column:collector_id" json:"collectorId,omitempty"`
	BaseModel
}

// TableName sets the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}

// Collector represents the collectors table. Prefix plus number form the
// collector code; the pair is unique so concurrent allocations cannot collide.
type Collector struct {
	ID        string  `gorm:"primarykey;column:id" json:"id"`
	Name      string  `gorm:"column:name;not null" json:"name"`
	Prefix    string  `gorm:"column:prefix;not null;uniqueIndex:idx_collectors_prefix_number" json:"prefix"`
	Number    int     `gorm:"column:number;not null;uniqueIndex:idx_collectors_prefix_number" json:"number"`
	Active    bool    `gorm:"column:active;not null;default:true" json:"active"`
	ProfileID *string `gorm:"column:profile_id" json:"profileId,omitempty"`
	BaseModel
}

// TableName sets the table name for GORM
func (Collector) TableName() string {
	return "collectors"
}

// Code returns the collector code, e.g. "JS03". Numbers render zero-padded to
// two digits and widen naturally past 99.
func (c *Collector) Code() string {
	return fmt.Sprintf("%s%02d", c.Prefix, c.Number)
}

// Member represents the members table
type Member struct {
	ID              string       `gorm:"primarykey;column:id" json:"id"`
	MemberNumber    string       `gorm:"column:member_number;not null;uniqueIndex" json:"memberNumber"`
	FullName        string       `gorm:"column:full_name;not null" json:"fullName"`
	Email           string       `gorm:"column:email" json:"email,omitempty"`
	Address         string       `gorm:"column:address" json:"address,omitempty"`
	Town            string       `gorm:"column:town" json:"town,omitempty"`
	Postcode        string       `gorm:"column:postcode" json:"postcode,omitempty"`
	Phone           string       `gorm:"column:phone" json:"phone,omitempty"`
	DateOfBirth     *time.Time   `gorm:"column:date_of_birth" json:"dateOfBirth,omitempty"`
	MaritalStatus   string       `gorm:"column:marital_status" json:"maritalStatus,omitempty"`
	Gender          string       `gorm:"column:gender" json:"gender,omitempty"`
	Status          MemberStatus `gorm:"column:status;default:active" json:"status"`
	PasswordChanged bool         `gorm:"column:password_changed;not null;default:false" json:"passwordChanged"`
	AuthUserID      *string      `gorm:"column:auth_user_id" json:"authUserId,omitempty"`
	CollectorID     *string      `gorm:"column:collector_id" json:"collectorId,omitempty"`
	BaseModel

	// Relationships
	Collector *Collector `gorm:"foreignKey:CollectorID;references:ID" json:"collector,omitempty"`
}

// TableName sets the table name for GORM
func (Member) TableName() string {
	return "members"
}

// SupportTicket represents the support_tickets table
type SupportTicket struct {
	ID          string         `gorm:"primarykey;column:id" json:"id"`
	MemberID    string         `gorm:"column:member_id;not null" json:"memberId"`
	Subject     string         `gorm:"column:subject;not null" json:"subject"`
	Description string         `gorm:"column:description" json:"description"`
	Status      TicketStatus   `gorm:"column:status;default:open" json:"status"`
	Priority    TicketPriority `gorm:"column:priority;default:medium" json:"priority"`
	BaseModel

	// Relationships
	Member *Member `gorm:"foreignKey:MemberID;references:ID" json:"member,omitempty"`
}

// TableName sets the table name for GORM
func (SupportTicket) TableName() string {
	return "support_tickets"
}

// TicketResponse represents the ticket_responses table
type TicketResponse struct {
	ID          string `gorm:"primarykey;column:id" json:"id"`
	TicketID    string `gorm:"column:ticket_id;not null" json:"ticketId"`
	ResponderID string `gorm:"column:responder_id;not null" json:"responderId"`
	Message     string `gorm:"column:message;not null" json:"message"`
	BaseModel

	// Relationships
	Responder *Profile `gorm:"foreignKey:ResponderID;references:ID" json:"responder,omitempty"`
}

// TableName sets the table name for GORM
func (TicketResponse) TableName() string {
	return "ticket_responses"
}
