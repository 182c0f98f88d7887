package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	apierrors "github.com/pwaburton/portal-backend/pkg/errors"
	"github.com/pwaburton/portal-backend/pkg/monitoring"
	"github.com/pwaburton/portal-backend/v1/models"
	"gorm.io/gorm"
)

// RoleService reconciles the role sets held by profiles. Role grants through
// AssignCollector and AssignAdmin are additive; ToggleRole is the only
// operation that removes a role.
type RoleService struct {
	db *gorm.DB
}

// NewRoleService creates a new role service
func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

// ToggleRole flips membership of a role on a profile: present is removed,
// absent is added. Calling it twice restores the original set.
func (s *RoleService) ToggleRole(profileID string, role models.Role) (*models.ProfileResponse, error) {
	if !role.IsValid() {
		return nil, apierrors.ValidationError("INVALID_ROLE", fmt.Sprintf("unknown role: %q", role))
	}

	profile, err := s.loadProfile(profileID)
	if err != nil {
		return nil, err
	}

	profile.Role = profile.Role.Toggle(role)

	if err := s.saveRoles(profile); err != nil {
		monitoring.RecordBusinessEvent(context.Background(), "role_toggle", false)
		return nil, apierrors.RoleUpdateFailedError(err)
	}

	slog.Info("Toggled role on profile", "profileId", profileID, "role", role, "roles", profile.Role.String())
	monitoring.RecordBusinessEvent(context.Background(), "role_toggle", true)
	return profileResponse(profile), nil
}

// AssignAdmin union-adds the admin role. Existing roles are never removed.
func (s *RoleService) AssignAdmin(profileID string) (*models.ProfileResponse, error) {
	profile, err := s.loadProfile(profileID)
	if err != nil {
		return nil, err
	}

	profile.Role = profile.Role.Add(models.RoleAdmin)

	if err := s.saveRoles(profile); err != nil {
		monitoring.RecordBusinessEvent(context.Background(), "admin_assign", false)
		return nil, apierrors.RoleUpdateFailedError(err)
	}

	slog.Info("Assigned admin role", "profileId", profileID, "roles", profile.Role.String())
	monitoring.RecordBusinessEvent(context.Background(), "admin_assign", true)
	return profileResponse(profile), nil
}

// AssignCollector binds a collector record to the profile and union-adds the
// collector role. Mode "new" allocates a fresh collector; mode "existing"
// references an active one.
//
// Collector creation and the role update are deliberately separate writes. The
// unique (prefix, number) index stops racing allocations, and a collector row
// that commits before a failed role update is kept so the allocation is not
// lost.
func (s *RoleService) AssignCollector(profileID string, req *models.AssignCollectorRequest) (*models.ProfileResponse, error) {
	profile, err := s.loadProfile(profileID)
	if err != nil {
		return nil, err
	}

	var collector *models.Collector

	switch req.Mode {
	case models.AssignCollectorModeNew:
		collector, err = s.createCollector(req.Name, profileID)
	case models.AssignCollectorModeExisting:
		collector, err = s.bindExistingCollector(req.CollectorID, profileID)
	default:
		return nil, apierrors.ValidationError("INVALID_MODE", fmt.Sprintf("unknown assignment mode: %q", req.Mode))
	}
	if err != nil {
		monitoring.RecordBusinessEvent(context.Background(), "collector_assign", false)
		return nil, err
	}

	profile.Role = profile.Role.Add(models.RoleCollector)
	profile.CollectorID = &collector.ID

	start := time.Now()
	saveErr := s.db.Model(&models.Profile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]interface{}{
			"role":         profile.Role,
			"collector_id": profile.CollectorID,
			"updated_at":   time.Now(),
		}).Error
	monitoring.RecordDBLatency(context.Background(), "postgres", "profiles.update_roles", time.Since(start))
	if saveErr != nil {
		// The collector row stays committed; retrying the role grant reuses it
		slog.Error("Role update failed after collector allocation",
			"profileId", profileID, "collectorId", collector.ID, "error", saveErr)
		monitoring.RecordBusinessEvent(context.Background(), "collector_assign", false)
		return nil, apierrors.RoleUpdateFailedError(saveErr)
	}

	slog.Info("Assigned collector role",
		"profileId", profileID,
		"collectorId", collector.ID,
		"code", collector.Code(),
		"roles", profile.Role.String())
	monitoring.RecordBusinessEvent(context.Background(), "collector_assign", true)
	return profileResponse(profile), nil
}

// createCollector allocates a new collector record from a display name
func (s *RoleService) createCollector(name, profileID string) (*models.Collector, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierrors.ValidationError("COLLECTOR_NAME_REQUIRED", "collector name is required")
	}
	if len(name) > models.MaxNameLength {
		return nil, apierrors.ValidationError("COLLECTOR_NAME_TOO_LONG", "collector name exceeds maximum length")
	}

	prefix := CollectorPrefix(name)
	number, err := s.nextCollectorNumber(prefix)
	if err != nil {
		return nil, apierrors.QueryFailedError("collectors.max_number", err)
	}

	collector := models.Collector{
		ID:        models.CollectorIDPrefix + uuid.New().String(),
		Name:      name,
		Prefix:    prefix,
		Number:    number,
		Active:    true,
		ProfileID: &profileID,
	}

	start := time.Now()
	err = s.db.Create(&collector).Error
	monitoring.RecordDBLatency(context.Background(), "postgres", "collectors.create", time.Since(start))
	if err != nil {
		return nil, apierrors.CollectorCreateFailedError(err)
	}

	slog.Info("Created collector", "collectorId", collector.ID, "code", collector.Code())
	return &collector, nil
}

// bindExistingCollector validates and binds an existing active collector
func (s *RoleService) bindExistingCollector(collectorID, profileID string) (*models.Collector, error) {
	if strings.TrimSpace(collectorID) == "" {
		return nil, apierrors.ValidationError("COLLECTOR_ID_REQUIRED", "collector id is required")
	}

	var collector models.Collector
	err := s.db.First(&collector, "id = ?", collectorID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ValidationError("COLLECTOR_NOT_FOUND", fmt.Sprintf("collector %s does not exist", collectorID))
		}
		return nil, apierrors.QueryFailedError("collectors.get", err)
	}

	if !collector.Active {
		return nil, apierrors.ValidationError("COLLECTOR_INACTIVE", fmt.Sprintf("collector %s is not active", collectorID))
	}

	if collector.ProfileID == nil || *collector.ProfileID == "" {
		if err := s.db.Model(&collector).Update("profile_id", profileID).Error; err != nil {
			return nil, apierrors.QueryFailedError("collectors.bind_profile", err)
		}
		collector.ProfileID = &profileID
	}

	return &collector, nil
}

// nextCollectorNumber returns the max number among collectors sharing the
// prefix (matched case-insensitively) plus one, starting at 1 when no
// collector carries the prefix yet.
func (s *RoleService) nextCollectorNumber(prefix string) (int, error) {
	var maxNumber int
	err := s.db.Model(&models.Collector{}).
		Select("COALESCE(MAX(number), 0)").
		Where("LOWER(prefix) = LOWER(?)", prefix).
		Scan(&maxNumber).Error
	if err != nil {
		return 0, err
	}
	return maxNumber + 1, nil
}

// CollectorPrefix derives the collector prefix from a display name: the
// uppercase initials of its words, e.g. "John Smith" -> "JS".
func CollectorPrefix(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
	}
	return b.String()
}

// loadProfile fetches a profile, mapping a missing row to the not-found taxonomy
func (s *RoleService) loadProfile(profileID string) (*models.Profile, error) {
	if strings.TrimSpace(profileID) == "" {
		return nil, apierrors.ValidationError("PROFILE_ID_REQUIRED", "profile id is required")
	}

	var profile models.Profile
	start := time.Now()
	err := s.db.First(&profile, "id = ?", profileID).Error
	monitoring.RecordDBLatency(context.Background(), "postgres", "profiles.get", time.Since(start))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ProfileNotFoundError(profileID)
		}
		return nil, apierrors.QueryFailedError("profiles.get", err)
	}
	return &profile, nil
}

// saveRoles persists only the role column plus the update timestamp
func (s *RoleService) saveRoles(profile *models.Profile) error {
	start := time.Now()
	err := s.db.Model(&models.Profile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]interface{}{
			"role":       profile.Role,
			"updated_at": time.Now(),
		}).Error
	monitoring.RecordDBLatency(context.Background(), "postgres", "profiles.update_roles", time.Since(start))
	return err
}

// profileResponse maps an entity onto the API representation
func profileResponse(p *models.Profile) *models.ProfileResponse {
	return &models.ProfileResponse{
		ID:          p.ID,
		FullName:    p.FullName,
		Email:       p.Email,
		Role:        p.Role,
		CollectorID: p.CollectorID,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}
