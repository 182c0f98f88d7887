package services

import (
	"testing"
	"time"

	apierrors "github.com/pwaburton/portal-backend/pkg/errors"
	"github.com/pwaburton/portal-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTicket(t *testing.T) {
	db := SetupTestDB(t)
	service := NewTicketService(db)
	seedLoginMember(t, db, "mem_tkt", "TK001")

	t.Run("OpensWithDefaults", func(t *testing.T) {
		ticket, err := service.CreateTicket("mem_tkt", &models.CreateTicketRequest{
			Subject:     "Payment query",
			Description: "My last payment has not appeared",
		})
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusOpen, ticket.Status)
		assert.Equal(t, models.TicketPriorityMedium, ticket.Priority)
		assert.Equal(t, "mem_tkt", ticket.MemberID)
	})

	t.Run("HonoursExplicitPriority", func(t *testing.T) {
		ticket, err := service.CreateTicket("mem_tkt", &models.CreateTicketRequest{
			Subject:  "Urgent",
			Priority: models.TicketPriorityHigh,
		})
		require.NoError(t, err)
		assert.Equal(t, models.TicketPriorityHigh, ticket.Priority)
	})

	t.Run("RejectsEmptySubject", func(t *testing.T) {
		_, err := service.CreateTicket("mem_tkt", &models.CreateTicketRequest{Subject: "  "})
		apiErr := apierrors.GetAPIError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, "SUBJECT_REQUIRED", apiErr.Code)
	})

	t.Run("RejectsUnknownMember", func(t *testing.T) {
		_, err := service.CreateTicket("mem_ghost", &models.CreateTicketRequest{Subject: "Hello"})
		apiErr := apierrors.GetAPIError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, apierrors.ErrorTypeNotFound, apiErr.Type)
	})
}

func TestTicketListing(t *testing.T) {
	db := SetupTestDB(t)
	service := NewTicketService(db)
	seedLoginMember(t, db, "mem_tkt_a", "TA001")
	seedLoginMember(t, db, "mem_tkt_b", "TB001")

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i, memberID := range []string{"mem_tkt_a", "mem_tkt_a", "mem_tkt_b"} {
		require.NoError(t, db.Create(&models.SupportTicket{
			ID:       "tkt_seed_" + string(rune('a'+i)),
			MemberID: memberID, Subject: "Seeded", Status: models.TicketStatusOpen,
			Priority:  models.TicketPriorityMedium,
			BaseModel: models.BaseModel{CreatedAt: base.Add(time.Duration(i) * time.Minute)},
		}).Error)
	}

	t.Run("ForMemberNewestFirst", func(t *testing.T) {
		tickets, err := service.ListTicketsForMember("mem_tkt_a")
		require.NoError(t, err)
		require.Len(t, tickets, 2)
		assert.Equal(t, "tkt_seed_b", tickets[0].ID)
	})

	t.Run("AllTickets", func(t *testing.T) {
		tickets, err := service.ListAllTickets()
		require.NoError(t, err)
		assert.Len(t, tickets, 3)
	})
}

func TestUpdateTicketStatus(t *testing.T) {
	db := SetupTestDB(t)
	service := NewTicketService(db)
	seedLoginMember(t, db, "mem_tkt_s", "TS001")

	ticket, err := service.CreateTicket("mem_tkt_s", &models.CreateTicketRequest{Subject: "Lifecycle"})
	require.NoError(t, err)

	t.Run("MovesThroughLifecycle", func(t *testing.T) {
		updated, err := service.UpdateTicketStatus(ticket.ID, models.TicketStatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusInProgress, updated.Status)

		updated, err = service.UpdateTicketStatus(ticket.ID, models.TicketStatusClosed)
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusClosed, updated.Status)
	})

	t.Run("RejectsUnknownStatus", func(t *testing.T) {
		_, err := service.UpdateTicketStatus(ticket.ID, models.TicketStatus("archived"))
		apiErr := apierrors.GetAPIError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, "INVALID_STATUS", apiErr.Code)
	})
}

func TestTicketResponses(t *testing.T) {
	db := SetupTestDB(t)
	service := NewTicketService(db)
	seedLoginMember(t, db, "mem_tkt_r", "TR001")
	require.NoError(t, db.Create(&models.Profile{
		ID: "usr-responder", FullName: "Help Desk",
		Role: models.RoleSet{models.RoleAdmin},
	}).Error)

	ticket, err := service.CreateTicket("mem_tkt_r", &models.CreateTicketRequest{Subject: "Thread"})
	require.NoError(t, err)

	t.Run("PostsAndListsOldestFirst", func(t *testing.T) {
		first, err := service.AddResponse(ticket.ID, "usr-responder", &models.CreateTicketResponseRequest{
			Message: "Looking into it",
		})
		require.NoError(t, err)
		assert.Equal(t, "Help Desk", first.ResponderName)

		_, err = service.AddResponse(ticket.ID, "usr-responder", &models.CreateTicketResponseRequest{
			Message: "Resolved now",
		})
		require.NoError(t, err)

		responses, err := service.ListResponses(ticket.ID)
		require.NoError(t, err)
		require.Len(t, responses, 2)
		assert.Equal(t, "Looking into it", responses[0].Message)
		assert.Equal(t, "Resolved now", responses[1].Message)
	})

	t.Run("RejectsEmptyMessage", func(t *testing.T) {
		_, err := service.AddResponse(ticket.ID, "usr-responder", &models.CreateTicketResponseRequest{Message: ""})
		apiErr := apierrors.GetAPIError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, "MESSAGE_REQUIRED", apiErr.Code)
	})

	t.Run("RejectsUnknownTicket", func(t *testing.T) {
		_, err := service.AddResponse("tkt_ghost", "usr-responder", &models.CreateTicketResponseRequest{Message: "hi"})
		apiErr := apierrors.GetAPIError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, apierrors.ErrorTypeNotFound, apiErr.Type)
	})
}
