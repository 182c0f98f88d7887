package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	apierrors "github.com/pwaburton/portal-backend/pkg/errors"
	"github.com/pwaburton/portal-backend/v1/models"
	"gorm.io/gorm"
)

// TicketService handles support tickets and their response threads
type TicketService struct {
	db *gorm.DB
}

// NewTicketService creates a new ticket service
func NewTicketService(db *gorm.DB) *TicketService {
	return &TicketService{db: db}
}

// CreateTicket opens a new ticket for the given member
func (s *TicketService) CreateTicket(memberID string, req *models.CreateTicketRequest) (*models.TicketView, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return nil, apierrors.ValidationError("SUBJECT_REQUIRED", "ticket subject is required")
	}
	if len(req.Description) > models.MaxDescriptionLength {
		return nil, apierrors.ValidationError("DESCRIPTION_TOO_LONG", "ticket description exceeds maximum length")
	}

	var member models.Member
	if err := s.db.First(&member, "id = ?", memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError("member")
		}
		return nil, apierrors.QueryFailedError("members.get", err)
	}

	priority := req.Priority
	if priority == "" {
		priority = models.TicketPriorityMedium
	}

	ticket := models.SupportTicket{
		ID:          models.TicketIDPrefix + uuid.New().String(),
		MemberID:    memberID,
		Subject:     req.Subject,
		Description: req.Description,
		Status:      models.TicketStatusOpen,
		Priority:    priority,
	}

	if err := s.db.Create(&ticket).Error; err != nil {
		return nil, apierrors.QueryFailedError("tickets.create", err)
	}

	view := ticketView(&ticket)
	return &view, nil
}

// ListTicketsForMember returns the tickets opened by one member, newest first
func (s *TicketService) ListTicketsForMember(memberID string) ([]models.TicketView, error) {
	var tickets []models.SupportTicket
	err := s.db.Where("member_id = ?", memberID).Order("created_at DESC").Find(&tickets).Error
	if err != nil {
		return nil, apierrors.QueryFailedError("tickets.list_member", err)
	}
	return ticketViews(tickets), nil
}

// ListAllTickets returns every ticket, newest first
func (s *TicketService) ListAllTickets() ([]models.TicketView, error) {
	var tickets []models.SupportTicket
	err := s.db.Order("created_at DESC").Find(&tickets).Error
	if err != nil {
		return nil, apierrors.QueryFailedError("tickets.list", err)
	}
	return ticketViews(tickets), nil
}

// GetTicket retrieves a ticket by id
func (s *TicketService) GetTicket(ticketID string) (*models.TicketView, error) {
	var ticket models.SupportTicket
	err := s.db.First(&ticket, "id = ?", ticketID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError("ticket")
		}
		return nil, apierrors.QueryFailedError("tickets.get", err)
	}
	view := ticketView(&ticket)
	return &view, nil
}

// UpdateTicketStatus moves a ticket through its lifecycle
func (s *TicketService) UpdateTicketStatus(ticketID string, status models.TicketStatus) (*models.TicketView, error) {
	if !status.IsValid() {
		return nil, apierrors.ValidationError("INVALID_STATUS", "unknown ticket status")
	}

	var ticket models.SupportTicket
	err := s.db.First(&ticket, "id = ?", ticketID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError("ticket")
		}
		return nil, apierrors.QueryFailedError("tickets.get", err)
	}

	ticket.Status = status
	if err := s.db.Save(&ticket).Error; err != nil {
		return nil, apierrors.QueryFailedError("tickets.update", err)
	}

	view := ticketView(&ticket)
	return &view, nil
}

// AddResponse posts a message on a ticket thread
func (s *TicketService) AddResponse(ticketID, responderID string, req *models.CreateTicketResponseRequest) (*models.TicketResponseView, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apierrors.ValidationError("MESSAGE_REQUIRED", "response message is required")
	}

	var ticket models.SupportTicket
	err := s.db.First(&ticket, "id = ?", ticketID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError("ticket")
		}
		return nil, apierrors.QueryFailedError("tickets.get", err)
	}

	response := models.TicketResponse{
		ID:          models.ResponseIDPrefix + uuid.New().String(),
		TicketID:    ticketID,
		ResponderID: responderID,
		Message:     req.Message,
	}

	if err := s.db.Create(&response).Error; err != nil {
		return nil, apierrors.QueryFailedError("ticket_responses.create", err)
	}

	return s.responseView(&response), nil
}

// ListResponses returns a ticket's thread with responder names, oldest first
func (s *TicketService) ListResponses(ticketID string) ([]models.TicketResponseView, error) {
	var responses []models.TicketResponse
	err := s.db.Preload("Responder").
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&responses).Error
	if err != nil {
		return nil, apierrors.QueryFailedError("ticket_responses.list", err)
	}

	out := make([]models.TicketResponseView, len(responses))
	for i := range responses {
		out[i] = *s.responseView(&responses[i])
	}
	return out, nil
}

func (s *TicketService) responseView(r *models.TicketResponse) *models.TicketResponseView {
	view := &models.TicketResponseView{
		ID:          r.ID,
		TicketID:    r.TicketID,
		ResponderID: r.ResponderID,
		Message:     r.Message,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}

	if r.Responder != nil {
		view.ResponderName = r.Responder.FullName
		view.ResponderRole = r.Responder.Role
	} else {
		var profile models.Profile
		if err := s.db.First(&profile, "id = ?", r.ResponderID).Error; err == nil {
			view.ResponderName = profile.FullName
			view.ResponderRole = profile.Role
		}
	}
	return view
}

func ticketView(t *models.SupportTicket) models.TicketView {
	return models.TicketView{
		ID:          t.ID,
		MemberID:    t.MemberID,
		Subject:     t.Subject,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
}

func ticketViews(tickets []models.SupportTicket) []models.TicketView {
	out := make([]models.TicketView, len(tickets))
	for i := range tickets {
		out[i] = ticketView(&tickets[i])
	}
	return out
}
