package models

// MembersPageSize is the fixed page size for member listing
const MembersPageSize = 20

// ProfilesPageSize is the fixed page size for the admin user list
const ProfilesPageSize = 20

// ID prefixes for generated entity identifiers
const (
	MemberIDPrefix    = "mem_"
	CollectorIDPrefix = "col_"
	TicketIDPrefix    = "tkt_"
	ResponseIDPrefix  = "rsp_"
)

// TicketStatus represents the lifecycle state of a support ticket
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// IsValid checks if the ticket status is a known state
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority represents the priority of a support ticket
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// MemberStatus represents the standing of a member record
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// LoginEmailDomain is the synthetic address domain used for member-number logins
const LoginEmailDomain = "temp.pwaburton.org"

// Field length constraints remain as regular constants
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 1000
	MaxEmailLength       = 320 // RFC 3696 specification
	MaxPhoneLength       = 15  // E.164 format
)
