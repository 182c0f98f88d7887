package models

// AuthorizationMode defines how the system behaves when no explicit permission is defined for an endpoint
type AuthorizationMode string

const (
	// AuthorizationModeFailClosed - Deny all access to undefined endpoints (most secure)
	AuthorizationModeFailClosed AuthorizationMode = "fail_closed"

	// AuthorizationModeFailOpenAdmin - Allow only admin users on undefined endpoints, deny others
	AuthorizationModeFailOpenAdmin AuthorizationMode = "fail_open_admin"
)

// Role represents user roles in the system
type Role string

const (
	RoleMember    Role = "member"    // Access to own profile and tickets
	RoleCollector Role = "collector" // Access to members assigned to the collector
	RoleAdmin     Role = "admin"     // Full access to all resources
)

// Permission represents specific permissions
type Permission string

const (
	// Member permissions
	PermissionReadMember     Permission = "member:read"
	PermissionReadAllMembers Permission = "member:read:all"
	PermissionCreateMember   Permission = "member:create"
	PermissionUpdateMember   Permission = "member:update"

	// Profile permissions
	PermissionReadProfile     Permission = "profile:read"
	PermissionReadAllProfiles Permission = "profile:read:all"
	PermissionManageRoles     Permission = "profile:manage_roles"

	// Collector permissions
	PermissionReadCollector   Permission = "collector:read"
	PermissionCreateCollector Permission = "collector:create"
	PermissionUpdateCollector Permission = "collector:update"

	// Ticket permissions
	PermissionCreateTicket   Permission = "ticket:create"
	PermissionReadTicket     Permission = "ticket:read"
	PermissionReadAllTickets Permission = "ticket:read:all"
	PermissionRespondTicket  Permission = "ticket:respond"
	PermissionUpdateTicket   Permission = "ticket:update"
)

// RolePermissions defines what permissions each role has
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		// Admin has all permissions
		PermissionReadMember, PermissionReadAllMembers, PermissionCreateMember,
		PermissionUpdateMember,
		PermissionReadProfile, PermissionReadAllProfiles, PermissionManageRoles,
		PermissionReadCollector, PermissionCreateCollector, PermissionUpdateCollector,
		PermissionCreateTicket, PermissionReadTicket, PermissionReadAllTickets,
		PermissionRespondTicket, PermissionUpdateTicket,
	},
	RoleCollector: {
		// Collectors see the members assigned to them plus their own profile and tickets
		PermissionReadMember,
		PermissionReadProfile,
		PermissionCreateTicket, PermissionReadTicket, PermissionRespondTicket,
	},
	RoleMember: {
		// Members manage their own record and tickets
		PermissionReadMember, PermissionUpdateMember,
		PermissionReadProfile,
		PermissionCreateTicket, PermissionReadTicket, PermissionRespondTicket,
	},
}

// EndpointPermission defines the required permission for each endpoint
type EndpointPermission struct {
	Method              string
	Path                string
	Permission          Permission
	IsOwnershipRequired bool // Whether the user must own the resource
}

// EndpointPermissions maps HTTP endpoints to required permissions
var EndpointPermissions = []EndpointPermission{
	// Member endpoints
	{"GET", "/api/v1/members", PermissionReadMember, false},
	{"POST", "/api/v1/members", PermissionCreateMember, false},
	{"GET", "/api/v1/members/*", PermissionReadMember, true},
	{"PUT", "/api/v1/members/*", PermissionUpdateMember, true},

	// Profile endpoints
	{"GET", "/api/v1/profiles", PermissionReadAllProfiles, false},
	{"GET", "/api/v1/profiles/*", PermissionReadProfile, true},
	{"POST", "/api/v1/profiles/*", PermissionManageRoles, false},

	// Collector endpoints
	{"GET", "/api/v1/collectors", PermissionReadCollector, false},
	{"GET", "/api/v1/collectors/*", PermissionReadCollector, false},
	{"PUT", "/api/v1/collectors/*", PermissionUpdateCollector, false},

	// Ticket endpoints
	{"GET", "/api/v1/tickets", PermissionReadTicket, false},
	{"POST", "/api/v1/tickets", PermissionCreateTicket, false},
	{"GET", "/api/v1/tickets/*", PermissionReadTicket, true},
	{"PUT", "/api/v1/tickets/*", PermissionUpdateTicket, false},
	{"POST", "/api/v1/tickets/*", PermissionRespondTicket, false},
}

// HasPermission checks if a role has a specific permission
func (r Role) HasPermission(permission Permission) bool {
	permissions, exists := RolePermissions[r]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	_, exists := RolePermissions[r]
	return exists
}
