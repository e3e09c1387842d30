package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketsquad/authgate/internal/models"
	pkglogger "github.com/marketsquad/authgate/pkg/logger"
)

func newSocialService(exchanger *MockExchanger, accounts *MockAccountRepository) *SocialService {
	logger := slog.Default()
	return NewSocialService(
		exchanger,
		accounts,
		&MockPolicySource{},
		&MockTokenIssuer{},
		func() (string, error) { return "temp-token-abc", nil },
		logger,
		pkglogger.NewAuditLogger(logger),
	)
}

func verifiedCustomer() *models.Account {
	return &models.Account{
		ID:            "acct-9",
		FirstName:     "Priya",
		LastName:      "Nair",
		Phone:         "+15550000009",
		Email:         "priya@example.com",
		UserType:      models.UserTypeCustomer,
		IsActive:      true,
		EmailVerified: true,
	}
}

func TestSocialService_Login_VerifiedAccountAuthenticates(t *testing.T) {
	account := verifiedCustomer()

	exchanger := &MockExchanger{
		ExchangeFunc: func(ctx context.Context, medium, token, uniqueID string) (*models.SocialClaims, error) {
			return &models.SocialClaims{
				Medium:  models.MediumGoogle,
				Email:   account.Email,
				Subject: "google-sub-1",
			}, nil
		},
	}
	accounts := &MockAccountRepository{
		GetByEmailFunc: func(ctx context.Context, email string, userTypes []string) (*models.Account, error) {
			assert.Equal(t, account.Email, email)
			assert.Equal(t, models.CustomerUserTypes, userTypes)
			return account, nil
		},
	}

	svc := newSocialService(exchanger, accounts)
	outcome, err := svc.Login(context.Background(), models.MediumGoogle, "provider-token", "", account.Email)

	require.NoError(t, err)
	require.NotNil(t, outcome.Authenticated)
	assert.Equal(t, "test-token", outcome.Authenticated.Token)
	assert.Equal(t, account.ID, outcome.Authenticated.AccountID)
	assert.Empty(t, outcome.TemporaryToken)
}

func TestSocialService_Login_ExchangeFailureIsSoft(t *testing.T) {
	exchanger := &MockExchanger{
		ExchangeFunc: func(ctx context.Context, medium, token, uniqueID string) (*models.SocialClaims, error) {
			return nil, errors.New("provider returned status 401")
		},
	}

	svc := newSocialService(exchanger, &MockAccountRepository{})
	outcome, err := svc.Login(context.Background(), models.MediumFacebook, "bad-token", "fb-1", "a@example.com")

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, models.ErrSocialExchange)
}

func TestSocialService_Login_EmailMismatchWithoutSubjectProof(t *testing.T) {
	exchanger := &MockExchanger{
		ExchangeFunc: func(ctx context.Context, medium, token, uniqueID string) (*models.SocialClaims, error) {
			// No subject and no key id: the claimed email has to match.
			return &models.SocialClaims{
				Medium: models.MediumFacebook,
				Email:  "other@example.com",
			}, nil
		},
	}

	svc := newSocialService(exchanger, &MockAccountRepository{})
	outcome, err := svc.Login(context.Background(), models.MediumFacebook, "token", "fb-1", "claimed@example.com")

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, models.ErrEmailMismatch)
}

func TestSocialService_Login_SubjectProofSkipsEmailMatch(t *testing.T) {
	account := verifiedCustomer()

	exchanger := &MockExchanger{
		ExchangeFunc: func(ctx context.Context, medium, token, uniqueID string) (*models.SocialClaims, error) {
			return &models.SocialClaims{
				Medium:  models.MediumGoogle,
				Email:   account.Email,
				Subject: "google-sub-1",
			}, nil
		},
	}
	accounts := &MockAccountRepository{
		GetByEmailFunc: func(ctx context.Context, email string, userTypes []string) (*models.Account, error) {
			return account, nil
		},
	}

	svc := newSocialService(exchanger, accounts)

	// The client-supplied email differs, but the provider vouched for the
	// identity with its own subject.
	outcome, err := svc.Login(context.Background(), models.MediumGoogle, "token", "", "stale@example.com")

	require.NoError(t, err)
	assert.NotNil(t, outcome.Authenticated)
}

func TestSocialService_Login_UnknownEmailHandsOffToRegistration(t *testing.T) {
	exchanger := &MockExchanger{
		ExchangeFunc: func(ctx context.Context, medium, token, uniqueID string) (*models.SocialClaims, error) {
			return &models.SocialClaims{
				Medium:  models.MediumGoogle,
				Email:   "new@example.com",
				Subject: "google-sub-2",
			}, nil
		},
	}

	svc := newSocialService(exchanger, &MockAccountRepository{})
	outcome, err := svc.Login(context.Background(), models.MediumGoogle, "token", "", "new@example.com")

	require.NoError(t, err)
	assert.Nil(t, outcome.Authenticated)
	assert.Equal(t, "temp-token-abc", outcome.TemporaryToken)
	assert.Nil(t, outcome.Email, "provider email is only surfaced for apple")
}

func TestSocialService_Login_AppleHandoffIncludesProviderEmail(t *testing.T) {
	exchanger := &MockExchanger{
		ExchangeFunc: func(ctx context.Context, medium, token, uniqueID string) (*models.SocialClaims, error) {
			return &models.SocialClaims{
				Medium:  models.MediumApple,
				Email:   "hidden@privaterelay.appleid.com",
				Subject: "apple-sub-1",
			}, nil
		},
	}

	svc := newSocialService(exchanger, &MockAccountRepository{})
	outcome, err := svc.Login(context.Background(), models.MediumApple, "token", "auth-code", "")

	require.NoError(t, err)
	assert.Equal(t, "temp-token-abc", outcome.TemporaryToken)
	require.NotNil(t, outcome.Email)
	assert.Equal(t, "hidden@privaterelay.appleid.com", *outcome.Email)
}

func TestSocialService_Login_UnverifiedEmailAsksForConfirmation(t *testing.T) {
	account := verifiedCustomer()
	account.EmailVerified = false

	exchanger := &MockExchanger{
		ExchangeFunc: func(ctx context.Context, medium, token, uniqueID string) (*models.SocialClaims, error) {
			return &models.SocialClaims{
				Medium:  models.MediumGoogle,
				Email:   account.Email,
				Subject: "google-sub-1",
			}, nil
		},
	}
	accounts := &MockAccountRepository{
		GetByEmailFunc: func(ctx context.Context, email string, userTypes []string) (*models.Account, error) {
			return account, nil
		},
	}

	svc := newSocialService(exchanger, accounts)
	outcome, err := svc.Login(context.Background(), models.MediumGoogle, "token", "", account.Email)

	require.NoError(t, err)
	assert.Nil(t, outcome.Authenticated)
	require.NotNil(t, outcome.Account)
	assert.Equal(t, account.ID, outcome.Account.ID)
	assert.False(t, outcome.Account.EmailVerified)
}

func TestSocialService_ConfirmExistingAccount_AcceptVerifiesAndAuthenticates(t *testing.T) {
	account := verifiedCustomer()
	account.EmailVerified = false

	verified := false
	accounts := &MockAccountRepository{
		GetByEmailFunc: func(ctx context.Context, email string, userTypes []string) (*models.Account, error) {
			return account, nil
		},
		MarkEmailVerifiedFunc: func(ctx context.Context, id string) error {
			verified = true
			return nil
		},
	}

	svc := newSocialService(&MockExchanger{}, accounts)
	outcome, err := svc.ConfirmExistingAccount(context.Background(), account.Email, models.MediumGoogle, true)

	require.NoError(t, err)
	assert.True(t, verified)
	require.NotNil(t, outcome.Authenticated)
	assert.Equal(t, account.ID, outcome.Authenticated.AccountID)
}

func TestSocialService_ConfirmExistingAccount_DeclineDetachesEmail(t *testing.T) {
	account := verifiedCustomer()
	account.EmailVerified = false

	detached := false
	accounts := &MockAccountRepository{
		GetByEmailFunc: func(ctx context.Context, email string, userTypes []string) (*models.Account, error) {
			return account, nil
		},
		DetachEmailFunc: func(ctx context.Context, id string) error {
			detached = true
			return nil
		},
	}

	svc := newSocialService(&MockExchanger{}, accounts)
	outcome, err := svc.ConfirmExistingAccount(context.Background(), account.Email, models.MediumGoogle, false)

	require.NoError(t, err)
	assert.True(t, detached)
	assert.Nil(t, outcome.Authenticated)
	assert.Equal(t, "temp-token-abc", outcome.TemporaryToken)
}

func TestSocialService_ConfirmExistingAccount_MissingAccountHandsOff(t *testing.T) {
	svc := newSocialService(&MockExchanger{}, &MockAccountRepository{})

	outcome, err := svc.ConfirmExistingAccount(context.Background(), "gone@example.com", models.MediumGoogle, true)

	require.NoError(t, err)
	assert.Equal(t, "temp-token-abc", outcome.TemporaryToken)
}

func TestSocialService_RegisterWithSocial_CreatesVerifiedCustomer(t *testing.T) {
	var created *models.Account
	accounts := &MockAccountRepository{
		CreateFunc: func(ctx context.Context, account *models.Account) (*models.Account, error) {
			account.ID = "acct-new"
			created = account
			return account, nil
		},
	}

	svc := newSocialService(&MockExchanger{}, accounts)
	outcome, err := svc.RegisterWithSocial(context.Background(), "Ana", "Silva", "ana@example.com", "+15550000031", "")

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.UserTypeCustomer, created.UserType)
	assert.True(t, created.EmailVerified)
	assert.True(t, created.IsActive)
	assert.Equal(t, "en", created.LanguageCode)
	assert.NotEmpty(t, created.PasswordHash)
	assert.NotEqual(t, "ana@example.com", created.PasswordHash)

	require.NotNil(t, outcome.Authenticated)
	assert.Equal(t, "acct-new", outcome.Authenticated.AccountID)
}

func TestSocialService_RegisterWithSocial_PhoneVerificationPolicyDefersToken(t *testing.T) {
	accounts := &MockAccountRepository{
		CreateFunc: func(ctx context.Context, account *models.Account) (*models.Account, error) {
			account.ID = "acct-new"
			return account, nil
		},
	}

	svc := newSocialService(&MockExchanger{}, accounts)
	svc.policies = &MockPolicySource{
		GetFunc: func(ctx context.Context) (models.LoginPolicy, error) {
			policy := models.DefaultLoginPolicy()
			policy.PhoneVerification = true
			return policy, nil
		},
	}

	outcome, err := svc.RegisterWithSocial(context.Background(), "Ana", "Silva", "ana@example.com", "+15550000031", "pt")

	require.NoError(t, err)
	assert.Nil(t, outcome.Authenticated)
	assert.Equal(t, "temp-token-abc", outcome.TemporaryToken)
}

func TestSocialService_RegisterWithSocial_PhoneConflict(t *testing.T) {
	existing := verifiedCustomer()

	accounts := &MockAccountRepository{
		FindByPhoneOrEmailFunc: func(ctx context.Context, phone, email string) (*models.Account, error) {
			return existing, nil
		},
	}

	svc := newSocialService(&MockExchanger{}, accounts)
	outcome, err := svc.RegisterWithSocial(context.Background(), "X", "Y", "fresh@example.com", existing.Phone, "en")

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, models.ErrPhoneAlreadyInUse)
}

func TestSocialService_RegisterWithSocial_EmailConflict(t *testing.T) {
	existing := verifiedCustomer()

	accounts := &MockAccountRepository{
		FindByPhoneOrEmailFunc: func(ctx context.Context, phone, email string) (*models.Account, error) {
			return existing, nil
		},
	}

	svc := newSocialService(&MockExchanger{}, accounts)
	outcome, err := svc.RegisterWithSocial(context.Background(), "X", "Y", existing.Email, "+15559999999", "en")

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, models.ErrEmailAlreadyInUse)
}
