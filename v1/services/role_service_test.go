package services

import (
	"testing"

	apierrors "github.com/pwaburton/portal-backend/pkg/errors"
	"github.com/pwaburton/portal-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedProfile(t *testing.T, db *gorm.DB, id string, roles ...models.Role) *models.Profile {
	t.Helper()
	profile := &models.Profile{
		ID:       id,
		FullName: "Test User",
		Email:    id + "@example.com",
		Role:     models.RoleSet(roles),
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func TestToggleRole(t *testing.T) {
	db := SetupTestDB(t)
	service := NewRoleService(db)

	t.Run("AddsMissingRole", func(t *testing.T) {
		seedProfile(t, db, "usr-toggle-add", models.RoleMember)

		resp, err := service.ToggleRole("usr-toggle-add", models.RoleCollector)
		require.NoError(t, err)
		assert.True(t, resp.Role.Has(models.RoleMember))
		assert.True(t, resp.Role.Has(models.RoleCollector))
	})

	t.Run("RemovesPresentRole", func(t *testing.T) {
		seedProfile(t, db, "usr-toggle-remove", models.RoleMember, models.RoleAdmin)

		resp, err := service.ToggleRole("usr-toggle-remove", models.RoleAdmin)
		require.NoError(t, err)
		assert.False(t, resp.Role.Has(models.RoleAdmin))
		assert.True(t, resp.Role.Has(models.RoleMember))
	})

	t.Run("TogglingTwiceRestoresOriginalSet", func(t *testing.T) {
		seedProfile(t, db, "usr-toggle-twice", models.RoleMember)

		_, err := service.ToggleRole("usr-toggle-twice", models.RoleCollector)
		require.NoError(t, err)
		resp, err := service.ToggleRole("usr-toggle-twice", models.RoleCollector)
		require.NoError(t, err)

		assert.Equal(t, "member", resp.Role.String())
	})

	t.Run("PersistsAcrossReload", func(t *testing.T) {
		seedProfile(t, db, "usr-toggle-persist", models.RoleMember)

		_, err := service.ToggleRole("usr-toggle-persist", models.RoleAdmin)
		require.NoError(t, err)

		var stored models.Profile
		require.NoError(t, db.First(&stored, "id = ?", "usr-toggle-persist").Error)
		assert.Equal(t, "member,admin", stored.Role.String())
	})

	t.Run("RejectsUnknownRole", func(t *testing.T) {
		_, err := service.ToggleRole("usr-toggle-add", models.Role("superuser"))
		apiErr := apierrors.GetAPIError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, apierrors.ErrorTypeValidation, apiErr.Type)
	})

	t.Run("MissingProfileReturnsNotFound", func(t *testing.T) {
		_, err := service.ToggleRole("usr-does-not-exist", models.RoleMember)
		apiErr := apierrors.GetAPIError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, "PROFILE_NOT_FOUND", apiErr.Code)
	})
}

func TestAssignAdmin(t *testing.T) {
	db := SetupTestDB(t)
	service := NewRoleService(db)

	t.Run("UnionAddsAdminRole", func(t *testing.T) {
		seedProfile(t, db, "usr-admin-1", models.RoleMember, models.RoleCollector)

		resp, err := service.AssignAdmin("usr-admin-1")
		require.NoError(t, err)
		assert.Equal(t, "member,collector,admin", resp.Role.String())
	})

	t.Run("IdempotentWhenAlreadyAdmin", func(t *testing.T) {
		seedProfile(t, db, "usr-admin-2", models.RoleAdmin)

		resp, err := service.AssignAdmin("usr-admin-2")
		require.NoError(t, err)
		assert.Equal(t, "admin", resp.Role.String())
	})
}

func TestAssignCollectorNew(t *testing.T) {
	db := SetupTestDB(t)
	service := NewRoleService(db)

	t.Run("AllocatesFirstCollectorNumber", func(t *testing.T) {
		seedProfile(t, db, "usr-col-1", models.RoleMember)

		resp, err := service.AssignCollector("usr-col-1", &models.AssignCollectorRequest{
			Mode: models.AssignCollectorModeNew,
			Name: "John Smith",
		})
		require.NoError(t, err)
		assert.True(t, resp.Role.Has(models.RoleCollector))
		require.NotNil(t, resp.CollectorID)

		var collector models.Collector
		require.NoError(t, db.First(&collector, "id = ?", *resp.CollectorID).Error)
		assert.Equal(t, "JS", collector.Prefix)
		assert.Equal(t, 1, collector.Number)
		assert.Equal(t, "JS01", collector.Code())
		assert.True(t, collector.Active)
	})

	t.Run("AllocatesMaxPlusOnePerPrefix", func(t *testing.T) {
		require.NoError(t, db.Create(&models.Collector{
			ID: "col_seed_amb1", Name: "Seed One", Prefix: "AMB", Number: 1, Active: true,
		}).Error)
		require.NoError(t, db.Create(&models.Collector{
			ID: "col_seed_amb2", Name: "Seed Two", Prefix: "AMB", Number: 2, Active: true,
		}).Error)
		seedProfile(t, db, "usr-col-2", models.RoleMember)

		resp, err := service.AssignCollector("usr-col-2", &models.AssignCollectorRequest{
			Mode: models.AssignCollectorModeNew,
			Name: "Anne Marie Brown",
		})
		require.NoError(t, err)

		var collector models.Collector
		require.NoError(t, db.First(&collector, "id = ?", *resp.CollectorID).Error)
		assert.Equal(t, "AMB", collector.Prefix)
		assert.Equal(t, 3, collector.Number)
		assert.Equal(t, "AMB03", collector.Code())
	})

	t.Run("StartsAtOneForUnseenPrefix", func(t *testing.T) {
		require.NoError(t, db.Create(&models.Collector{
			ID: "col_seed_js42", Name: "Jay Sixty", Prefix: "JS", Number: 42, Active: true,
		}).Error)
		seedProfile(t, db, "usr-col-6", models.RoleMember)

		resp, err := service.AssignCollector("usr-col-6", &models.AssignCollectorRequest{
			Mode: models.AssignCollectorModeNew,
			Name: "Jane Doe",
		})
		require.NoError(t, err)

		var collector models.Collector
		require.NoError(t, db.First(&collector, "id = ?", *resp.CollectorID).Error)
		assert.Equal(t, "JD", collector.Prefix)
		assert.Equal(t, 1, collector.Number)
		assert.Equal(t, "JD01", collector.Code())
	})

	t.Run("MatchesPrefixCaseInsensitively", func(t *testing.T) {
		require.NoError(t, db.Create(&models.Collector{
			ID: "col_seed_rb", Name: "Legacy Import", Prefix: "rb", Number: 5, Active: true,
		}).Error)
		seedProfile(t, db, "usr-col-7", models.RoleMember)

		resp, err := service.AssignCollector("usr-col-7", &models.AssignCollectorRequest{
			Mode: models.AssignCollectorModeNew,
			Name: "Rachel Bates",
		})
		require.NoError(t, err)

		var collector models.Collector
		require.NoError(t, db.First(&collector, "id = ?", *resp.CollectorID).Error)
		assert.Equal(t, "RB", collector.Prefix)
		assert.Equal(t, 6, collector.Number)
	})

	t.Run("KeepsExistingRoles", func(t *testing.T) {
		seedProfile(t, db, "usr-col-3", models.RoleMember, models.RoleAdmin)

		resp, err := service.AssignCollector("usr-col-3", &models.AssignCollectorRequest{
			Mode: models.AssignCollectorModeNew,
			Name: "Carol White",
		})
		require.NoError(t, err)
		assert.Equal(t, "member,collector,admin", resp.Role.String())
	})

	t.Run("RejectsEmptyName", func(t *testing.T) {
		seedProfile(t, db, "usr-col-4", models.RoleMember)

		_, err := service.AssignCollector("usr-col-4", &models.AssignCollectorRequest{
			Mode: models.AssignCollectorModeNew,
			Name: "   ",
		})
		apiErr := apierrors.GetAPIError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, "COLLECTOR_NAME_REQUIRED", apiErr.Code)
	})

	t.Run("RejectsUnknownMode", func(t *testing.T) {
		seedProfile(t, db, "usr-col-5", models.RoleMember)

		_, err := service.AssignCollector("usr-col-5", &models.AssignCollectorRequest{Mode: "replace"})
		apiErr := apierrors.GetAPIError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, "INVALID_MODE", apiErr.Code)
	})
}

func TestAssignCollectorExisting(t *testing.T) {
	db := SetupTestDB(t)
	service := NewRoleService(db)

	t.Run("BindsActiveCollector", func(t *testing.T) {
		require.NoError(t, db.Create(&models.Collector{
			ID: "col_active", Name: "Active One", Prefix: "AO", Number: 1, Active: true,
		}).Error)
		seedProfile(t, db, "usr-exist-1", models.RoleMember)

		resp, err := service.AssignCollector("usr-exist-1", &models.AssignCollectorRequest{
			Mode:        models.AssignCollectorModeExisting,
			CollectorID: "col_active",
		})
		require.NoError(t, err)
		require.NotNil(t, resp.CollectorID)
		assert.Equal(t, "col_active", *resp.CollectorID)

		var collector models.Collector
		require.NoError(t, db.First(&collector, "id = ?", "col_active").Error)
		require.NotNil(t, collector.ProfileID)
		assert.Equal(t, "usr-exist-1", *collector.ProfileID)
	})

	t.Run("RejectsInactiveCollector", func(t *testing.T) {
		require.NoError(t, db.Create(&models.Collector{
			ID: "col_inactive", Name: "Retired", Prefix: "RT", Number: 2, Active: false,
		}).Error)
		seedProfile(t, db, "usr-exist-2", models.RoleMember)

		_, err := service.AssignCollector("usr-exist-2", &models.AssignCollectorRequest{
			Mode:        models.AssignCollectorModeExisting,
			CollectorID: "col_inactive",
		})
		apiErr := apierrors.GetAPIError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, "COLLECTOR_INACTIVE", apiErr.Code)
	})

	t.Run("RejectsMissingCollector", func(t *testing.T) {
		seedProfile(t, db, "usr-exist-3", models.RoleMember)

		_, err := service.AssignCollector("usr-exist-3", &models.AssignCollectorRequest{
			Mode:        models.AssignCollectorModeExisting,
			CollectorID: "col_ghost",
		})
		apiErr := apierrors.GetAPIError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, "COLLECTOR_NOT_FOUND", apiErr.Code)
	})
}

func TestCollectorPrefix(t *testing.T) {
	cases := []struct {
		name     string
		expected string
	}{
		{"John Smith", "JS"},
		{"Anne Marie Brown", "AMB"},
		{"single", "S"},
		{"  padded   name  ", "PN"},
		{"o'brien james", "OJ"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, CollectorPrefix(tc.name), "name=%q", tc.name)
	}
}
