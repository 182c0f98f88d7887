package idp

import (
	"context"
	"errors"
)

// ErrInvalidCredentials is returned when the provider rejects an email/password pair
var ErrInvalidCredentials = errors.New("invalid credentials")

// ProviderType identifies a supported identity provider implementation
type ProviderType string

const (
	ProviderGoTrue ProviderType = "gotrue"
)

// IdentityProviderAPI is the contract the application depends on for all
// identity provider operations
type IdentityProviderAPI interface {
	CredentialManager
	UserManager
}

// CredentialManager covers credential verification and rotation
type CredentialManager interface {
	// Authenticate verifies an email/password pair and returns a session on success
	Authenticate(ctx context.Context, email, password string) (*Session, error)
	// UpdatePassword replaces the password for the given provider user
	UpdatePassword(ctx context.Context, userId string, newPassword string) error
}

// UserManager covers administrative user operations
type UserManager interface {
	CreateUser(ctx context.Context, user *User) (*UserInfo, error)
	GetUser(ctx context.Context, userId string) (*UserInfo, error)
	DeleteUser(ctx context.Context, userId string) error
}

type User struct {
	Email    string
	Password string
	FullName string
}

type UserInfo struct {
	Id       string
	Email    string
	FullName string
}

// Session represents an authenticated provider session
type Session struct {
	UserId      string
	AccessToken string
	TokenType   string
	ExpiresIn   int
}
