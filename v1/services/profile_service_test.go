package services

import (
	"fmt"
	"testing"

	apierrors "github.com/pwaburton/portal-backend/pkg/errors"
	"github.com/pwaburton/portal-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProfiles(t *testing.T) {
	db := SetupTestDB(t)
	service := NewProfileService(db)

	seedProfile(t, db, "usr-list-1", models.RoleMember)
	seedProfile(t, db, "usr-list-2", models.RoleMember, models.RoleCollector)
	seedProfile(t, db, "usr-list-3", models.RoleAdmin)

	t.Run("AllProfiles", func(t *testing.T) {
		resp, err := service.ListProfiles("", 0)
		require.NoError(t, err)
		assert.Len(t, resp.Items, 3)
		assert.Equal(t, int64(3), resp.TotalCount)
		assert.Equal(t, models.ProfilesPageSize, resp.PageSize)
	})

	t.Run("FilteredByRole", func(t *testing.T) {
		resp, err := service.ListProfiles(models.RoleCollector, 0)
		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "usr-list-2", resp.Items[0].ID)
		assert.Equal(t, int64(1), resp.TotalCount)
	})

	t.Run("PageBeyondEndIsEmpty", func(t *testing.T) {
		resp, err := service.ListProfiles("", 5)
		require.NoError(t, err)
		assert.Empty(t, resp.Items)
		assert.Equal(t, int64(3), resp.TotalCount)
	})

	t.Run("RejectsNegativePage", func(t *testing.T) {
		_, err := service.ListProfiles("", -1)
		apiErr := apierrors.GetAPIError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, "INVALID_PAGE", apiErr.Code)
	})

	t.Run("RejectsUnknownRoleFilter", func(t *testing.T) {
		_, err := service.ListProfiles(models.Role("superuser"), 0)
		apiErr := apierrors.GetAPIError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, apierrors.ErrorTypeValidation, apiErr.Type)
	})
}

func TestListProfilesPaging(t *testing.T) {
	db := SetupTestDB(t)
	service := NewProfileService(db)

	for i := 0; i < models.ProfilesPageSize+5; i++ {
		seedProfile(t, db, fmt.Sprintf("usr-page-%03d", i), models.RoleMember)
	}

	first, err := service.ListProfiles("", 0)
	require.NoError(t, err)
	assert.Len(t, first.Items, models.ProfilesPageSize)
	assert.Equal(t, int64(models.ProfilesPageSize+5), first.TotalCount)

	second, err := service.ListProfiles("", 1)
	require.NoError(t, err)
	assert.Len(t, second.Items, 5)
}

func TestGetProfile(t *testing.T) {
	db := SetupTestDB(t)
	service := NewProfileService(db)
	seedProfile(t, db, "usr-get", models.RoleMember, models.RoleAdmin)

	t.Run("Found", func(t *testing.T) {
		profile, err := service.GetProfile("usr-get")
		require.NoError(t, err)
		assert.Equal(t, "member,admin", profile.Role.String())
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := service.GetProfile("usr-ghost")
		apiErr := apierrors.GetAPIError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, "PROFILE_NOT_FOUND", apiErr.Code)
	})
}
