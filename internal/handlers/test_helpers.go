package handlers

import (
	"context"

	"github.com/marketsquad/authgate/internal/models"
	"github.com/marketsquad/authgate/internal/services"
)

// MockLoginService implements LoginServiceInterface for testing
type MockLoginService struct {
	LoginFunc  func(ctx context.Context, identifier, secret string, scope services.RoleScope, channel string) (*models.AuthResult, error)
	LogoutFunc func(ctx context.Context, tokenString string) error
}

func (m *MockLoginService) Login(ctx context.Context, identifier, secret string, scope services.RoleScope, channel string) (*models.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, identifier, secret, scope, channel)
	}
	return nil, models.ErrInternalServer
}

func (m *MockLoginService) Logout(ctx context.Context, tokenString string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, tokenString)
	}
	return nil
}

// MockSocialService implements SocialServiceInterface for testing
type MockSocialService struct {
	LoginFunc                  func(ctx context.Context, medium, token, uniqueID, email string) (*models.SocialOutcome, error)
	ConfirmExistingAccountFunc func(ctx context.Context, email, medium string, accepts bool) (*models.SocialOutcome, error)
	RegisterWithSocialFunc     func(ctx context.Context, firstName, lastName, email, phone, languageCode string) (*models.SocialOutcome, error)
}

func (m *MockSocialService) Login(ctx context.Context, medium, token, uniqueID, email string) (*models.SocialOutcome, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, medium, token, uniqueID, email)
	}
	return nil, models.ErrInternalServer
}

func (m *MockSocialService) ConfirmExistingAccount(ctx context.Context, email, medium string, accepts bool) (*models.SocialOutcome, error) {
	if m.ConfirmExistingAccountFunc != nil {
		return m.ConfirmExistingAccountFunc(ctx, email, medium, accepts)
	}
	return nil, models.ErrInternalServer
}

func (m *MockSocialService) RegisterWithSocial(ctx context.Context, firstName, lastName, email, phone, languageCode string) (*models.SocialOutcome, error) {
	if m.RegisterWithSocialFunc != nil {
		return m.RegisterWithSocialFunc(ctx, firstName, lastName, email, phone, languageCode)
	}
	return nil, models.ErrInternalServer
}
