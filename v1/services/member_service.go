package services

import (
	"context"
	"errors"
	"strings"
	"time"

	apierrors "github.com/pwaburton/portal-backend/pkg/errors"
	"github.com/pwaburton/portal-backend/pkg/monitoring"
	"github.com/pwaburton/portal-backend/v1/models"
	"gorm.io/gorm"
)

// MemberService handles member listing and self-service updates
type MemberService struct {
	db *gorm.DB
}

// NewMemberService creates a new member service
func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

// ListMembers returns one fixed-size page of members ordered newest first.
// Admin callers see every member. Collector callers are scoped to the members
// linked to their collector record through members.collector_id. A collector
// caller whose profile has no collector record gets an empty page; a caller
// with no profile row at all gets ProfileNotFound.
func (s *MemberService) ListMembers(caller *models.AuthenticatedUser, req *models.ListMembersRequest) (*models.MemberListResponse, error) {
	if req.Page < 0 {
		return nil, apierrors.ValidationError("INVALID_PAGE", "page must not be negative")
	}

	query := s.db.Model(&models.Member{})

	if !caller.IsAdmin() {
		collectorID, err := s.callerCollectorID(caller.IdpUserID)
		if err != nil {
			return nil, err
		}
		if collectorID == "" {
			return emptyMemberPage(req.Page), nil
		}
		query = query.Where("collector_id = ?", collectorID)
	}

	if term := strings.TrimSpace(req.SearchTerm); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(member_number) LIKE ?", like, like)
	}

	var totalCount int64
	start := time.Now()
	if err := query.Count(&totalCount).Error; err != nil {
		monitoring.RecordDBLatency(context.Background(), "postgres", "members.count", time.Since(start))
		return nil, apierrors.QueryFailedError("members.count", err)
	}

	var members []models.Member
	err := query.
		Order("created_at DESC").
		Offset(req.Page * models.MembersPageSize).
		Limit(models.MembersPageSize).
		Find(&members).Error
	monitoring.RecordDBLatency(context.Background(), "postgres", "members.list", time.Since(start))
	if err != nil {
		return nil, apierrors.QueryFailedError("members.list", err)
	}

	items := make([]models.MemberResponse, len(members))
	for i := range members {
		items[i] = memberResponse(&members[i])
	}

	return &models.MemberListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       req.Page,
		PageSize:   models.MembersPageSize,
	}, nil
}

// callerCollectorID resolves the collector record linked to the caller's
// profile. An empty string means the profile exists but has no collector
// record; a caller with no profile at all is an error.
func (s *MemberService) callerCollectorID(profileID string) (string, error) {
	var profile models.Profile
	err := s.db.First(&profile, "id = ?", profileID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apierrors.ProfileNotFoundError(profileID)
		}
		return "", apierrors.QueryFailedError("profiles.get", err)
	}

	if profile.CollectorID != nil && *profile.CollectorID != "" {
		return *profile.CollectorID, nil
	}

	// Fall back to the reverse linkage for profiles predating collector_id
	var collector models.Collector
	err = s.db.First(&collector, "profile_id = ?", profileID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", apierrors.QueryFailedError("collectors.get_by_profile", err)
	}
	return collector.ID, nil
}

// GetMember retrieves a member by id
func (s *MemberService) GetMember(memberID string) (*models.MemberResponse, error) {
	var member models.Member
	err := s.db.First(&member, "id = ?", memberID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError("member")
		}
		return nil, apierrors.QueryFailedError("members.get", err)
	}
	resp := memberResponse(&member)
	return &resp, nil
}

// GetMemberForAuthUser retrieves the member record bound to the given provider user
func (s *MemberService) GetMemberForAuthUser(authUserID string) (*models.MemberResponse, error) {
	var member models.Member
	err := s.db.First(&member, "auth_user_id = ?", authUserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError("member")
		}
		return nil, apierrors.QueryFailedError("members.get_by_auth_user", err)
	}
	resp := memberResponse(&member)
	return &resp, nil
}

// UpdateMember applies the self-service contact and demographic fields
func (s *MemberService) UpdateMember(memberID string, req *models.UpdateMemberRequest) (*models.MemberResponse, error) {
	var member models.Member
	err := s.db.First(&member, "id = ?", memberID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError("member")
		}
		return nil, apierrors.QueryFailedError("members.get", err)
	}

	if req.Email != nil {
		if len(*req.Email) > models.MaxEmailLength {
			return nil, apierrors.ValidationError("INVALID_EMAIL", "email exceeds maximum length")
		}
		member.Email = *req.Email
	}
	if req.Address != nil {
		member.Address = *req.Address
	}
	if req.Town != nil {
		member.Town = *req.Town
	}
	if req.Postcode != nil {
		member.Postcode = *req.Postcode
	}
	if req.Phone != nil {
		if len(*req.Phone) > models.MaxPhoneLength {
			return nil, apierrors.ValidationError("INVALID_PHONE", "phone exceeds maximum length")
		}
		member.Phone = *req.Phone
	}
	if req.MaritalStatus != nil {
		member.MaritalStatus = *req.MaritalStatus
	}
	if req.Gender != nil {
		member.Gender = *req.Gender
	}

	start := time.Now()
	err = s.db.Save(&member).Error
	monitoring.RecordDBLatency(context.Background(), "postgres", "members.update", time.Since(start))
	if err != nil {
		return nil, apierrors.QueryFailedError("members.update", err)
	}

	resp := memberResponse(&member)
	return &resp, nil
}

func emptyMemberPage(page int) *models.MemberListResponse {
	return &models.MemberListResponse{
		Items:      []models.MemberResponse{},
		TotalCount: 0,
		Page:       page,
		PageSize:   models.MembersPageSize,
	}
}

func memberResponse(m *models.Member) models.MemberResponse {
	resp := models.MemberResponse{
		ID:              m.ID,
		MemberNumber:    m.MemberNumber,
		FullName:        m.FullName,
		Email:           m.Email,
		Address:         m.Address,
		Town:            m.Town,
		Postcode:        m.Postcode,
		Phone:           m.Phone,
		MaritalStatus:   m.MaritalStatus,
		Gender:          m.Gender,
		Status:          string(m.Status),
		PasswordChanged: m.PasswordChanged,
		CollectorID:     m.CollectorID,
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       m.UpdatedAt.Format(time.RFC3339),
	}
	if m.DateOfBirth != nil {
		resp.DateOfBirth = m.DateOfBirth.Format("2006-01-02")
	}
	return resp
}
