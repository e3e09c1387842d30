package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/marketsquad/authgate/internal/metrics"
	"github.com/marketsquad/authgate/internal/models"
	"github.com/marketsquad/authgate/internal/social"
	pkgauth "github.com/marketsquad/authgate/pkg/auth"
	pkglogger "github.com/marketsquad/authgate/pkg/logger"
)

// TemporaryTokenFunc mints the opaque handoff token the registration flow
// carries between steps
type TemporaryTokenFunc func() (string, error)

// SocialService handles the social login exchange, the existing-account
// confirmation step and social registration. All flows operate on
// customer accounts only.
type SocialService struct {
	exchanger social.Exchanger
	accounts  AccountRepository
	policies  PolicySource
	tokens    TokenIssuer
	tempToken TemporaryTokenFunc
	logger    *slog.Logger
	audit     *pkglogger.AuditLogger
}

// NewSocialService creates a new SocialService
func NewSocialService(
	exchanger social.Exchanger,
	accounts AccountRepository,
	policies PolicySource,
	tokens TokenIssuer,
	tempToken TemporaryTokenFunc,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *SocialService {
	return &SocialService{
		exchanger: exchanger,
		accounts:  accounts,
		policies:  policies,
		tokens:    tokens,
		tempToken: tempToken,
		logger:    logger,
		audit:     audit,
	}
}

// Login exchanges a provider token and routes the caller to one of three
// outcomes: authenticated, confirm-existing-account, or
// continue-to-registration (temporary token).
func (s *SocialService) Login(ctx context.Context, medium, token, uniqueID, email string) (*models.SocialOutcome, error) {
	outcome, err := s.login(ctx, medium, token, uniqueID, email)

	metrics.RecordSocialLogin(medium, socialOutcomeLabel(outcome, err))

	return outcome, err
}

func (s *SocialService) login(ctx context.Context, medium, token, uniqueID, email string) (*models.SocialOutcome, error) {
	claims, err := s.exchanger.Exchange(ctx, medium, token, uniqueID)
	if err != nil {
		s.logger.Warn("social exchange failed",
			slog.String("medium", medium),
			slog.Any("error", err))
		return nil, models.ErrSocialExchange
	}

	// When the provider response carries its own subject identity, that is
	// the proof; the client-supplied email only has to match otherwise.
	if claims.Subject == "" && claims.KeyID == "" {
		if !strings.EqualFold(claims.Email, email) {
			return nil, models.ErrEmailMismatch
		}
	}

	lookupEmail := claims.Email
	if lookupEmail == "" {
		lookupEmail = email
	}

	account, err := s.accounts.GetByEmail(ctx, lookupEmail, models.CustomerUserTypes)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return s.registrationHandoff(medium, claims)
		}
		s.logger.Error("failed to look up social account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !account.EmailVerified {
		// Matched an account that never proved this email. Hand the
		// summary back so the client can ask the user to confirm it.
		return &models.SocialOutcome{Account: account.Summary()}, nil
	}

	return s.authenticate(account)
}

// ConfirmExistingAccount completes the disambiguation step: the user
// either claims the matched account (verifying its email) or disowns it,
// in which case the email is detached so registration can reuse it.
func (s *SocialService) ConfirmExistingAccount(ctx context.Context, email, medium string, accepts bool) (*models.SocialOutcome, error) {
	account, err := s.accounts.GetByEmail(ctx, email, models.CustomerUserTypes)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return s.registrationHandoff(medium, nil)
		}
		s.logger.Error("failed to look up account for confirmation", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !accepts {
		if err := s.accounts.DetachEmail(ctx, account.ID); err != nil {
			s.logger.Error("failed to detach email", slog.String("account_id", account.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		s.audit.LogAccountAction("email_detached", account.ID, map[string]string{"medium": medium})
		return s.registrationHandoff(medium, nil)
	}

	if err := s.accounts.MarkEmailVerified(ctx, account.ID); err != nil {
		s.logger.Error("failed to mark email verified", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAccountAction("email_verified", account.ID, map[string]string{"medium": medium})
	return s.authenticate(account)
}

// RegisterWithSocial creates a customer account for a user who arrived
// through a social exchange with no matching account. The email is taken
// as verified; whether the phone still needs verification before first
// login follows the current policy.
func (s *SocialService) RegisterWithSocial(ctx context.Context, firstName, lastName, email, phone, languageCode string) (*models.SocialOutcome, error) {
	existing, err := s.accounts.FindByPhoneOrEmail(ctx, phone, email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check for existing account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if existing != nil {
		if strings.EqualFold(existing.Phone, phone) {
			return nil, models.ErrPhoneAlreadyInUse
		}
		return nil, models.ErrEmailAlreadyInUse
	}

	password, err := pkgauth.GenerateRandomPassword()
	if err != nil {
		s.logger.Error("failed to generate password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	passwordHash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if languageCode == "" {
		languageCode = "en"
	}

	account, err := s.accounts.Create(ctx, &models.Account{
		FirstName:     firstName,
		LastName:      lastName,
		Email:         email,
		Phone:         phone,
		PasswordHash:  passwordHash,
		UserType:      models.UserTypeCustomer,
		IsActive:      true,
		EmailVerified: true,
		LanguageCode:  languageCode,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrEmailAlreadyInUse
		}
		s.logger.Error("failed to create account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAccountAction("social_registration", account.ID, map[string]string{
		"user_type": account.UserType,
	})

	policy := s.registrationPolicy(ctx)
	if policy.PhoneVerification {
		// The phone is unverified; the client routes to OTP verification
		// with the handoff token instead of straight into a session.
		return s.registrationHandoff("", nil)
	}

	return s.authenticate(account)
}

func (s *SocialService) authenticate(account *models.Account) (*models.SocialOutcome, error) {
	token, err := s.tokens.IssueAccessToken(account.ID, models.CustomerPanelAccess)
	if err != nil {
		s.logger.Error("failed to issue access token", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "social_login",
		Scope:     models.CustomerPanelAccess,
		AccountID: account.ID,
		Success:   true,
	})

	return &models.SocialOutcome{
		Authenticated: &models.AuthResult{
			Token:     token,
			AccountID: account.ID,
			IsActive:  account.IsActive,
		},
	}, nil
}

// registrationHandoff mints the temporary token that carries the user to
// the registration (or OTP) step. For apple logins the provider email is
// included, since the client never saw it.
func (s *SocialService) registrationHandoff(medium string, claims *models.SocialClaims) (*models.SocialOutcome, error) {
	token, err := s.tempToken()
	if err != nil {
		s.logger.Error("failed to generate temporary token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	outcome := &models.SocialOutcome{TemporaryToken: token}
	if medium == models.MediumApple && claims != nil && claims.Email != "" {
		email := claims.Email
		outcome.Email = &email
	}

	return outcome, nil
}

func (s *SocialService) registrationPolicy(ctx context.Context) models.LoginPolicy {
	policy, err := s.policies.Get(ctx)
	if err != nil {
		s.logger.Warn("failed to read login policy, using defaults", slog.Any("error", err))
	}
	return policy
}

func socialOutcomeLabel(outcome *models.SocialOutcome, err error) string {
	switch {
	case err == nil && outcome != nil && outcome.Authenticated != nil:
		return "authenticated"
	case err == nil && outcome != nil && outcome.Account != nil:
		return "needs_confirmation"
	case err == nil:
		return "needs_registration"
	case errors.Is(err, models.ErrSocialExchange):
		return "exchange_failed"
	case errors.Is(err, models.ErrEmailMismatch):
		return "email_mismatch"
	default:
		return "error"
	}
}
