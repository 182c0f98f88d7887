package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pwaburton/portal-backend/idp"
	apierrors "github.com/pwaburton/portal-backend/pkg/errors"
	"github.com/pwaburton/portal-backend/pkg/monitoring"
	"github.com/pwaburton/portal-backend/v1/models"
	"gorm.io/gorm"
)

// AuthService handles member-number logins and password changes against the
// hosted identity provider
type AuthService struct {
	db  *gorm.DB
	idp idp.IdentityProviderAPI
}

// NewAuthService creates a new auth service
func NewAuthService(db *gorm.DB, provider idp.IdentityProviderAPI) *AuthService {
	return &AuthService{db: db, idp: provider}
}

// LoginEmail derives the synthetic provider address for a member number
func LoginEmail(memberNumber string) string {
	return fmt.Sprintf("%s@%s", strings.ToLower(strings.TrimSpace(memberNumber)), models.LoginEmailDomain)
}

// Login authenticates a member by member number and password. On the first
// successful login the provider user id is bound to the member record; the
// binding is set once and never overwritten.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	memberNumber := strings.TrimSpace(req.MemberNumber)
	if memberNumber == "" || req.Password == "" {
		return nil, apierrors.ValidationError("CREDENTIALS_REQUIRED", "member number and password are required")
	}

	var member models.Member
	err := s.db.First(&member, "LOWER(member_number) = ?", strings.ToLower(memberNumber)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same response as a wrong password so member numbers cannot be probed
			monitoring.RecordBusinessEvent(ctx, "login", false)
			return nil, apierrors.UnauthenticatedError("invalid member number or password")
		}
		return nil, apierrors.QueryFailedError("members.get_by_number", err)
	}

	start := time.Now()
	session, err := s.idp.Authenticate(ctx, LoginEmail(memberNumber), req.Password)
	monitoring.RecordExternalCall(ctx, "idp", "authenticate", time.Since(start), err)
	if err != nil {
		if errors.Is(err, idp.ErrInvalidCredentials) {
			monitoring.RecordBusinessEvent(ctx, "login", false)
			return nil, apierrors.UnauthenticatedError("invalid member number or password")
		}
		return nil, apierrors.InternalErrorWithCause("identity provider unavailable", err)
	}

	if member.AuthUserID == nil || *member.AuthUserID == "" {
		if err := s.db.Model(&member).Update("auth_user_id", session.UserId).Error; err != nil {
			return nil, apierrors.QueryFailedError("members.bind_auth_user", err)
		}
		member.AuthUserID = &session.UserId
		slog.Info("Bound provider user to member", "memberId", member.ID, "authUserId", session.UserId)
	}

	monitoring.RecordBusinessEvent(ctx, "login", true)
	return &models.LoginResponse{
		AccessToken:     session.AccessToken,
		TokenType:       session.TokenType,
		ExpiresIn:       session.ExpiresIn,
		MemberID:        member.ID,
		PasswordChanged: member.PasswordChanged,
	}, nil
}

// ChangePassword rotates the member's provider credential and marks the
// member as past the forced password change.
func (s *AuthService) ChangePassword(ctx context.Context, req *models.ChangePasswordRequest) error {
	memberNumber := strings.TrimSpace(req.MemberNumber)
	if memberNumber == "" {
		return apierrors.ValidationError("MEMBER_NUMBER_REQUIRED", "member number is required")
	}
	if len(req.NewPassword) < 8 {
		return apierrors.ValidationError("PASSWORD_TOO_SHORT", "password must be at least 8 characters")
	}

	var member models.Member
	err := s.db.First(&member, "LOWER(member_number) = ?", strings.ToLower(memberNumber)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierrors.NotFoundError("member")
		}
		return apierrors.QueryFailedError("members.get_by_number", err)
	}

	if member.AuthUserID == nil || *member.AuthUserID == "" {
		return apierrors.ValidationError("NOT_LOGGED_IN", "member has never logged in")
	}

	start := time.Now()
	err = s.idp.UpdatePassword(ctx, *member.AuthUserID, req.NewPassword)
	monitoring.RecordExternalCall(ctx, "idp", "update_password", time.Since(start), err)
	if err != nil {
		monitoring.RecordBusinessEvent(ctx, "password_change", false)
		return apierrors.InternalErrorWithCause("failed to update password", err)
	}

	if err := s.db.Model(&member).Update("password_changed", true).Error; err != nil {
		return apierrors.QueryFailedError("members.mark_password_changed", err)
	}

	slog.Info("Password changed", "memberId", member.ID)
	monitoring.RecordBusinessEvent(ctx, "password_change", true)
	return nil
}

// ProvisionMember creates a member record together with its identity provider
// account. The provider user is created first; if the member insert then
// fails the provider account is deleted so a retry starts clean.
func (s *AuthService) ProvisionMember(ctx context.Context, req *models.CreateMemberRequest) (*models.MemberResponse, error) {
	memberNumber := strings.ToUpper(strings.TrimSpace(req.MemberNumber))
	if memberNumber == "" {
		return nil, apierrors.ValidationError("MEMBER_NUMBER_REQUIRED", "member number is required")
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, apierrors.ValidationError("FULL_NAME_REQUIRED", "full name is required")
	}
	if len(req.InitialPassword) < 8 {
		return nil, apierrors.ValidationError("PASSWORD_TOO_SHORT", "password must be at least 8 characters")
	}

	var existing models.Member
	err := s.db.First(&existing, "LOWER(member_number) = ?", strings.ToLower(memberNumber)).Error
	if err == nil {
		return nil, apierrors.ConflictError(fmt.Sprintf("member number %s is already taken", memberNumber))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.QueryFailedError("members.get_by_number", err)
	}

	start := time.Now()
	info, err := s.idp.CreateUser(ctx, &idp.User{
		Email:    LoginEmail(memberNumber),
		Password: req.InitialPassword,
		FullName: fullName,
	})
	monitoring.RecordExternalCall(ctx, "idp", "create_user", time.Since(start), err)
	if err != nil {
		monitoring.RecordBusinessEvent(ctx, "member_provision", false)
		return nil, apierrors.InternalErrorWithCause("failed to create provider account", err)
	}

	member := models.Member{
		ID:              models.MemberIDPrefix + uuid.New().String(),
		MemberNumber:    memberNumber,
		FullName:        fullName,
		Email:           req.Email,
		Status:          models.MemberStatusActive,
		PasswordChanged: false,
		AuthUserID:      &info.Id,
	}

	if err := s.db.Create(&member).Error; err != nil {
		// Roll the provider account back so the address can be reused
		if delErr := s.idp.DeleteUser(ctx, info.Id); delErr != nil {
			slog.Error("Failed to delete provider account after member insert failure",
				"authUserId", info.Id, "error", delErr)
		}
		monitoring.RecordBusinessEvent(ctx, "member_provision", false)
		return nil, apierrors.QueryFailedError("members.create", err)
	}

	slog.Info("Provisioned member", "memberId", member.ID, "memberNumber", memberNumber, "authUserId", info.Id)
	monitoring.RecordBusinessEvent(ctx, "member_provision", true)
	resp := memberResponse(&member)
	return &resp, nil
}

// MemberAccount returns the identity provider account bound to a member
func (s *AuthService) MemberAccount(ctx context.Context, memberID string) (*models.MemberAccountResponse, error) {
	var member models.Member
	err := s.db.First(&member, "id = ?", memberID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError("member")
		}
		return nil, apierrors.QueryFailedError("members.get", err)
	}

	if member.AuthUserID == nil || *member.AuthUserID == "" {
		return nil, apierrors.ValidationError("NOT_LOGGED_IN", "member has no provider account")
	}

	start := time.Now()
	info, err := s.idp.GetUser(ctx, *member.AuthUserID)
	monitoring.RecordExternalCall(ctx, "idp", "get_user", time.Since(start), err)
	if err != nil {
		return nil, apierrors.InternalErrorWithCause("failed to fetch provider account", err)
	}

	return &models.MemberAccountResponse{
		MemberID:       member.ID,
		ProviderUserID: info.Id,
		Email:          info.Email,
		FullName:       info.FullName,
	}, nil
}
