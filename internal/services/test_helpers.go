package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marketsquad/authgate/internal/models"
)

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	GetByIdentifierFunc    func(ctx context.Context, identifier string, userTypes []string) (*models.Account, error)
	GetByPhoneFunc         func(ctx context.Context, phone string, userTypes []string) (*models.Account, error)
	GetByEmailFunc         func(ctx context.Context, email string, userTypes []string) (*models.Account, error)
	FindByPhoneOrEmailFunc func(ctx context.Context, phone, email string) (*models.Account, error)
	CreateFunc             func(ctx context.Context, account *models.Account) (*models.Account, error)
	RecordFailedLoginFunc  func(ctx context.Context, id string, maxHits int) (int, bool, error)
	ClearTempBlockFunc     func(ctx context.Context, id string) error
	GetBlockTimeFunc       func(ctx context.Context, id string) (*time.Time, error)
	MarkEmailVerifiedFunc  func(ctx context.Context, id string) error
	DetachEmailFunc        func(ctx context.Context, id string) error
}

func (m *MockAccountRepository) GetByIdentifier(ctx context.Context, identifier string, userTypes []string) (*models.Account, error) {
	if m.GetByIdentifierFunc != nil {
		return m.GetByIdentifierFunc(ctx, identifier, userTypes)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) GetByPhone(ctx context.Context, phone string, userTypes []string) (*models.Account, error) {
	if m.GetByPhoneFunc != nil {
		return m.GetByPhoneFunc(ctx, phone, userTypes)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string, userTypes []string) (*models.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email, userTypes)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) FindByPhoneOrEmail(ctx context.Context, phone, email string) (*models.Account, error) {
	if m.FindByPhoneOrEmailFunc != nil {
		return m.FindByPhoneOrEmailFunc(ctx, phone, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAccountRepository) RecordFailedLogin(ctx context.Context, id string, maxHits int) (int, bool, error) {
	if m.RecordFailedLoginFunc != nil {
		return m.RecordFailedLoginFunc(ctx, id, maxHits)
	}
	return 1, false, nil
}

func (m *MockAccountRepository) ClearTempBlock(ctx context.Context, id string) error {
	if m.ClearTempBlockFunc != nil {
		return m.ClearTempBlockFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountRepository) GetBlockTime(ctx context.Context, id string) (*time.Time, error) {
	if m.GetBlockTimeFunc != nil {
		return m.GetBlockTimeFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockAccountRepository) MarkEmailVerified(ctx context.Context, id string) error {
	if m.MarkEmailVerifiedFunc != nil {
		return m.MarkEmailVerifiedFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountRepository) DetachEmail(ctx context.Context, id string) error {
	if m.DetachEmailFunc != nil {
		return m.DetachEmailFunc(ctx, id)
	}
	return nil
}

// MockPolicySource implements PolicySource for testing
type MockPolicySource struct {
	GetFunc func(ctx context.Context) (models.LoginPolicy, error)
}

func (m *MockPolicySource) Get(ctx context.Context) (models.LoginPolicy, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	return models.DefaultLoginPolicy(), nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	IssueAccessTokenFunc func(accountID, scope string) (string, error)
	ValidateTokenFunc    func(tokenString string) (*models.TokenClaims, error)
}

func (m *MockTokenIssuer) IssueAccessToken(accountID, scope string) (string, error) {
	if m.IssueAccessTokenFunc != nil {
		return m.IssueAccessTokenFunc(accountID, scope)
	}
	return "test-token", nil
}

func (m *MockTokenIssuer) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	return nil, models.ErrUnauthorized
}

// MockTokenRevoker implements TokenRevoker for testing
type MockTokenRevoker struct {
	RevokeTokenFunc func(ctx context.Context, jti, accountID, scope string, expiresAt time.Time, reason string) error
}

func (m *MockTokenRevoker) RevokeToken(ctx context.Context, jti, accountID, scope string, expiresAt time.Time, reason string) error {
	if m.RevokeTokenFunc != nil {
		return m.RevokeTokenFunc(ctx, jti, accountID, scope, expiresAt, reason)
	}
	return nil
}

// MockNotificationSender implements NotificationSender for testing
type MockNotificationSender struct {
	NotifyAccountLockedFunc func(ctx context.Context, account *models.Account, duration time.Duration)
}

func (m *MockNotificationSender) NotifyAccountLocked(ctx context.Context, account *models.Account, duration time.Duration) {
	if m.NotifyAccountLockedFunc != nil {
		m.NotifyAccountLockedFunc(ctx, account, duration)
	}
}

// MockExchanger implements social.Exchanger for testing
type MockExchanger struct {
	ExchangeFunc func(ctx context.Context, medium, token, uniqueID string) (*models.SocialClaims, error)
}

func (m *MockExchanger) Exchange(ctx context.Context, medium, token, uniqueID string) (*models.SocialClaims, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, medium, token, uniqueID)
	}
	return nil, models.ErrSocialExchange
}

// stubTokenClaims builds token claims for logout tests
func stubTokenClaims(jti, accountID, scope string, expiresAt time.Time) *models.TokenClaims {
	return &models.TokenClaims{
		Scope:     scope,
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
}
