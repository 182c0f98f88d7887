package services

import (
	"context"
	"testing"

	"github.com/pwaburton/portal-backend/idp"
	"github.com/pwaburton/portal-backend/v1/models"
	"github.com/stretchr/testify/mock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an isolated in-memory SQLite database with the full
// schema migrated. Each call returns a fresh database.
//
// Exported for use in handler tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Profile{},
		&models.Collector{},
		&models.Member{},
		&models.SupportTicket{},
		&models.TicketResponse{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// MockIdentityProviderAPI is a testify mock of the identity provider contract
type MockIdentityProviderAPI struct {
	mock.Mock
}

func (m *MockIdentityProviderAPI) Authenticate(ctx context.Context, email, password string) (*idp.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.Session), args.Error(1)
}

func (m *MockIdentityProviderAPI) UpdatePassword(ctx context.Context, userId string, newPassword string) error {
	args := m.Called(ctx, userId, newPassword)
	return args.Error(0)
}

func (m *MockIdentityProviderAPI) CreateUser(ctx context.Context, user *idp.User) (*idp.UserInfo, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.UserInfo), args.Error(1)
}

func (m *MockIdentityProviderAPI) GetUser(ctx context.Context, userId string) (*idp.UserInfo, error) {
	args := m.Called(ctx, userId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.UserInfo), args.Error(1)
}

func (m *MockIdentityProviderAPI) DeleteUser(ctx context.Context, userId string) error {
	args := m.Called(ctx, userId)
	return args.Error(0)
}
