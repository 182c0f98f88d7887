package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pwaburton/portal-backend/idp"
	"github.com/pwaburton/portal-backend/shared/utils"
	"github.com/pwaburton/portal-backend/v1/models"
	"github.com/pwaburton/portal-backend/v1/services"
	authutils "github.com/pwaburton/portal-backend/v1/utils"
	"gorm.io/gorm"
)

// V1Handler handles all V1 API routes
type V1Handler struct {
	authService      *services.AuthService
	roleService      *services.RoleService
	profileService   *services.ProfileService
	memberService    *services.MemberService
	collectorService *services.CollectorService
	ticketService    *services.TicketService
}

// NewV1Handler creates a new V1 handler
func NewV1Handler(db *gorm.DB, provider idp.IdentityProviderAPI) *V1Handler {
	return &V1Handler{
		authService:      services.NewAuthService(db, provider),
		roleService:      services.NewRoleService(db),
		profileService:   services.NewProfileService(db),
		memberService:    services.NewMemberService(db),
		collectorService: services.NewCollectorService(db),
		ticketService:    services.NewTicketService(db),
	}
}

// SetupV1Routes configures all V1 API routes
func (h *V1Handler) SetupV1Routes(mux *http.ServeMux) {
	mux.Handle("/api/v1/auth/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleAuth)))

	mux.Handle("/api/v1/profiles", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleProfiles)))
	mux.Handle("/api/v1/profiles/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleProfiles)))

	mux.Handle("/api/v1/members", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleMembers)))
	mux.Handle("/api/v1/members/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleMembers)))

	mux.Handle("/api/v1/collectors", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleCollectors)))
	mux.Handle("/api/v1/collectors/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleCollectors)))

	mux.Handle("/api/v1/tickets", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleTickets)))
	mux.Handle("/api/v1/tickets/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleTickets)))
}

// handleAuth handles login and password change routes
func (h *V1Handler) handleAuth(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/auth")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	if len(parts) != 1 {
		utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
		return
	}

	switch parts[0] {
	case "login":
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.login(w, r)
	case "change-password":
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.changePassword(w, r)
	default:
		utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
	}
}

func (h *V1Handler) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, resp)
}

func (h *V1Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// handleProfiles handles profile and role administration routes
func (h *V1Handler) handleProfiles(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/profiles")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// Handle collection endpoint: GET /api/v1/profiles
	if len(parts) == 1 && parts[0] == "" {
		if r.Method == http.MethodGet {
			h.listProfiles(w, r)
		} else {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) < 1 || parts[0] == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Profile ID is required")
		return
	}

	profileID := parts[0]

	// Handle base profile endpoint: GET /api/v1/profiles/:profileId
	if len(parts) == 1 {
		if r.Method == http.MethodGet {
			h.getProfile(w, r, profileID)
		} else {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	// Role administration: POST /api/v1/profiles/:profileId/{roles|collector|admin}
	if len(parts) == 2 {
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		switch parts[1] {
		case "roles":
			h.toggleRole(w, r, profileID)
		case "collector":
			h.assignCollector(w, r, profileID)
		case "admin":
			h.assignAdmin(w, r, profileID)
		default:
			utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
		}
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	roleFilter := models.Role(r.URL.Query().Get("role"))

	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		var err error
		page, err = strconv.Atoi(raw)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid page number")
			return
		}
	}

	resp, err := h.profileService.ListProfiles(roleFilter, page)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, resp)
}

func (h *V1Handler) getProfile(w http.ResponseWriter, r *http.Request, profileID string) {
	user, err := authutils.RequireAuthentication(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !authutils.IsOwnerOrAdmin(user, profileID) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient privileges")
		return
	}

	profile, err := h.profileService.GetProfile(profileID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, profile)
}

func (h *V1Handler) toggleRole(w http.ResponseWriter, r *http.Request, profileID string) {
	var req models.ToggleRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.roleService.ToggleRole(profileID, req.Role)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, profile)
}

func (h *V1Handler) assignCollector(w http.ResponseWriter, r *http.Request, profileID string) {
	var req models.AssignCollectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.roleService.AssignCollector(profileID, &req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, profile)
}

func (h *V1Handler) assignAdmin(w http.ResponseWriter, r *http.Request, profileID string) {
	profile, err := h.roleService.AssignAdmin(profileID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, profile)
}

// handleMembers handles member listing and self-service routes
func (h *V1Handler) handleMembers(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/members")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// Handle collection endpoints: GET/POST /api/v1/members
	if len(parts) == 1 && parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			h.listMembers(w, r)
		case http.MethodPost:
			h.createMember(w, r)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) < 1 || parts[0] == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Member ID is required")
		return
	}

	memberID := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getMember(w, r, memberID)
		case http.MethodPut:
			h.updateMember(w, r, memberID)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) == 2 && parts[1] == "account" && r.Method == http.MethodGet {
		h.getMemberAccount(w, r, memberID)
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	user, err := authutils.RequireAuthentication(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid page number")
			return
		}
	}

	req := models.ListMembersRequest{
		Page:       page,
		SearchTerm: r.URL.Query().Get("search"),
	}

	resp, err := h.memberService.ListMembers(user, &req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, resp)
}

func (h *V1Handler) getMember(w http.ResponseWriter, r *http.Request, memberID string) {
	user, err := authutils.RequireAuthentication(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	// "me" resolves the caller's own member record via the provider binding
	if memberID == "me" {
		member, err := h.memberService.GetMemberForAuthUser(user.IdpUserID)
		if err != nil {
			utils.RespondWithAPIError(w, err)
			return
		}
		utils.RespondWithSuccess(w, http.StatusOK, member)
		return
	}

	member, err := h.memberService.GetMember(memberID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	if !h.canAccessMember(user, member) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient privileges")
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, member)
}

func (h *V1Handler) updateMember(w http.ResponseWriter, r *http.Request, memberID string) {
	user, err := authutils.RequireAuthentication(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if memberID == "me" {
		own, err := h.memberService.GetMemberForAuthUser(user.IdpUserID)
		if err != nil {
			utils.RespondWithAPIError(w, err)
			return
		}
		memberID = own.ID
	} else if !user.IsAdmin() {
		own, err := h.memberService.GetMemberForAuthUser(user.IdpUserID)
		if err != nil || own.ID != memberID {
			utils.RespondWithError(w, http.StatusForbidden, "Insufficient privileges")
			return
		}
	}

	var req models.UpdateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	member, err := h.memberService.UpdateMember(memberID, &req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, member)
}

func (h *V1Handler) createMember(w http.ResponseWriter, r *http.Request) {
	user, err := authutils.RequireAuthentication(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !user.IsAdmin() {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient privileges")
		return
	}

	var req models.CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	member, err := h.authService.ProvisionMember(r.Context(), &req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusCreated, member)
}

func (h *V1Handler) getMemberAccount(w http.ResponseWriter, r *http.Request, memberID string) {
	user, err := authutils.RequireAuthentication(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !user.IsAdmin() {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient privileges")
		return
	}

	account, err := h.authService.MemberAccount(r.Context(), memberID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, account)
}

// canAccessMember enforces the member record access rules: admins see all,
// members see themselves, collectors see members linked to their collector
func (h *V1Handler) canAccessMember(user *models.AuthenticatedUser, member *models.MemberResponse) bool {
	if user.IsAdmin() {
		return true
	}

	if own, err := h.memberService.GetMemberForAuthUser(user.IdpUserID); err == nil && own.ID == member.ID {
		return true
	}

	if user.IsCollector() {
		profile, err := h.profileService.GetProfile(user.IdpUserID)
		if err == nil && profile.CollectorID != nil && member.CollectorID != nil &&
			*profile.CollectorID == *member.CollectorID {
			return true
		}
	}

	return false
}

// handleCollectors handles the collector catalog routes
func (h *V1Handler) handleCollectors(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/collectors")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// Handle collection endpoint: GET /api/v1/collectors
	if len(parts) == 1 && parts[0] == "" {
		if r.Method == http.MethodGet {
			h.listCollectors(w, r)
		} else {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) < 1 || parts[0] == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Collector ID is required")
		return
	}

	collectorID := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getCollector(w, r, collectorID)
		case http.MethodPut:
			h.updateCollector(w, r, collectorID)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) listCollectors(w http.ResponseWriter, r *http.Request) {
	collectors, err := h.collectorService.ListCollectors()
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, models.CollectionResponse{Items: collectors, Count: len(collectors)})
}

func (h *V1Handler) getCollector(w http.ResponseWriter, r *http.Request, collectorID string) {
	collector, err := h.collectorService.GetCollector(collectorID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, collector)
}

func (h *V1Handler) updateCollector(w http.ResponseWriter, r *http.Request, collectorID string) {
	var req models.UpdateCollectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	collector, err := h.collectorService.UpdateCollector(collectorID, &req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, collector)
}

// handleTickets handles support ticket routes
func (h *V1Handler) handleTickets(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/tickets")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// Handle collection endpoint: GET /api/v1/tickets and POST /api/v1/tickets
	if len(parts) == 1 && parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			h.listTickets(w, r)
		case http.MethodPost:
			h.createTicket(w, r)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) < 1 || parts[0] == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Ticket ID is required")
		return
	}

	ticketID := parts[0]

	if len(parts) == 1 {
		if r.Method == http.MethodGet {
			h.getTicket(w, r, ticketID)
		} else {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "status":
			if r.Method == http.MethodPut {
				h.updateTicketStatus(w, r, ticketID)
			} else {
				utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case "responses":
			switch r.Method {
			case http.MethodGet:
				h.listTicketResponses(w, r, ticketID)
			case http.MethodPost:
				h.createTicketResponse(w, r, ticketID)
			default:
				utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		default:
			utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
		}
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) listTickets(w http.ResponseWriter, r *http.Request) {
	user, err := authutils.RequireAuthentication(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var tickets []models.TicketView
	if user.IsAdmin() {
		tickets, err = h.ticketService.ListAllTickets()
	} else {
		var own *models.MemberResponse
		own, err = h.memberService.GetMemberForAuthUser(user.IdpUserID)
		if err != nil {
			utils.RespondWithAPIError(w, err)
			return
		}
		tickets, err = h.ticketService.ListTicketsForMember(own.ID)
	}
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, models.CollectionResponse{Items: tickets, Count: len(tickets)})
}

func (h *V1Handler) createTicket(w http.ResponseWriter, r *http.Request) {
	user, err := authutils.RequireAuthentication(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	own, err := h.memberService.GetMemberForAuthUser(user.IdpUserID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	var req models.CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ticket, err := h.ticketService.CreateTicket(own.ID, &req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusCreated, ticket)
}

func (h *V1Handler) getTicket(w http.ResponseWriter, r *http.Request, ticketID string) {
	user, err := authutils.RequireAuthentication(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ticket, err := h.ticketService.GetTicket(ticketID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	if !h.canAccessTicket(user, ticket) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient privileges")
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, ticket)
}

func (h *V1Handler) updateTicketStatus(w http.ResponseWriter, r *http.Request, ticketID string) {
	var req models.UpdateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ticket, err := h.ticketService.UpdateTicketStatus(ticketID, req.Status)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, ticket)
}

func (h *V1Handler) listTicketResponses(w http.ResponseWriter, r *http.Request, ticketID string) {
	user, err := authutils.RequireAuthentication(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ticket, err := h.ticketService.GetTicket(ticketID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	if !h.canAccessTicket(user, ticket) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient privileges")
		return
	}

	responses, err := h.ticketService.ListResponses(ticketID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, models.CollectionResponse{Items: responses, Count: len(responses)})
}

func (h *V1Handler) createTicketResponse(w http.ResponseWriter, r *http.Request, ticketID string) {
	user, err := authutils.RequireAuthentication(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ticket, err := h.ticketService.GetTicket(ticketID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	if !h.canAccessTicket(user, ticket) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient privileges")
		return
	}

	var req models.CreateTicketResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.ticketService.AddResponse(ticketID, user.IdpUserID, &req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusCreated, response)
}

// canAccessTicket lets admins and the ticket's member through
func (h *V1Handler) canAccessTicket(user *models.AuthenticatedUser, ticket *models.TicketView) bool {
	if user.IsAdmin() {
		return true
	}
	own, err := h.memberService.GetMemberForAuthUser(user.IdpUserID)
	return err == nil && own.ID == ticket.MemberID
}
