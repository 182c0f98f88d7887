package services

import (
	"errors"
	"time"

	apierrors "github.com/pwaburton/portal-backend/pkg/errors"
	"github.com/pwaburton/portal-backend/v1/models"
	"gorm.io/gorm"
)

// ProfileService handles profile reads for the admin user list
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService creates a new profile service
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// ListProfiles returns one fixed-size page of profiles ordered newest first,
// optionally filtered by role membership
func (s *ProfileService) ListProfiles(roleFilter models.Role, page int) (*models.ProfileListResponse, error) {
	if page < 0 {
		return nil, apierrors.ValidationError("INVALID_PAGE", "page must not be negative")
	}

	query := s.db.Model(&models.Profile{})

	if roleFilter != "" {
		if !roleFilter.IsValid() {
			return nil, apierrors.ValidationError("INVALID_ROLE", "unknown role filter")
		}
		// Role sets are comma-delimited; match the token at any position
		token := string(roleFilter)
		query = query.Where(
			"role = ? OR role LIKE ? OR role LIKE ? OR role LIKE ?",
			token, token+",%", "%,"+token, "%,"+token+",%",
		)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, apierrors.QueryFailedError("profiles.count", err)
	}

	var profiles []models.Profile
	err := query.
		Order("created_at DESC").
		Offset(page * models.ProfilesPageSize).
		Limit(models.ProfilesPageSize).
		Find(&profiles).Error
	if err != nil {
		return nil, apierrors.QueryFailedError("profiles.list", err)
	}

	items := make([]models.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		items = append(items, models.ProfileResponse{
			ID:          p.ID,
			FullName:    p.FullName,
			Email:       p.Email,
			Role:        p.Role,
			CollectorID: p.CollectorID,
			CreatedAt:   p.CreatedAt.Format(time.RFC3339),
			UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
		})
	}

	return &models.ProfileListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   models.ProfilesPageSize,
	}, nil
}

// GetProfile retrieves a profile by id
func (s *ProfileService) GetProfile(profileID string) (*models.ProfileResponse, error) {
	var profile models.Profile
	err := s.db.First(&profile, "id = ?", profileID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ProfileNotFoundError(profileID)
		}
		return nil, apierrors.QueryFailedError("profiles.get", err)
	}
	return profileResponse(&profile), nil
}
