package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/marketsquad/authgate/internal/metrics"
	"github.com/marketsquad/authgate/internal/models"
	pkgauth "github.com/marketsquad/authgate/pkg/auth"
	pkglogger "github.com/marketsquad/authgate/pkg/logger"
)

// Login channel types for customer/provider entry points
const (
	ChannelPhone = "phone"
	ChannelEmail = "email"
)

// AccountRepository defines the persistence operations the login flow needs
type AccountRepository interface {
	GetByIdentifier(ctx context.Context, identifier string, userTypes []string) (*models.Account, error)
	GetByPhone(ctx context.Context, phone string, userTypes []string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string, userTypes []string) (*models.Account, error)
	FindByPhoneOrEmail(ctx context.Context, phone, email string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	RecordFailedLogin(ctx context.Context, id string, maxHits int) (hitCount int, blocked bool, err error)
	ClearTempBlock(ctx context.Context, id string) error
	GetBlockTime(ctx context.Context, id string) (*time.Time, error)
	MarkEmailVerified(ctx context.Context, id string) error
	DetachEmail(ctx context.Context, id string) error
}

// PolicySource supplies the current login policy
type PolicySource interface {
	Get(ctx context.Context) (models.LoginPolicy, error)
}

// TokenIssuer issues and validates scope-bound access tokens
type TokenIssuer interface {
	IssueAccessToken(accountID, scope string) (string, error)
	ValidateToken(tokenString string) (*models.TokenClaims, error)
}

// TokenRevoker blacklists issued tokens
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti, accountID, scope string, expiresAt time.Time, reason string) error
}

// NotificationSender delivers fire-and-forget notices on state
// transitions. Failures never affect the login outcome.
type NotificationSender interface {
	NotifyAccountLocked(ctx context.Context, account *models.Account, duration time.Duration)
}

// RoleScope describes one login entry point: which user types it accepts,
// which access scope its tokens carry and which checks apply.
type RoleScope struct {
	Name         string
	AllowedRoles []string
	AccessScope  string

	// PhoneOnly restricts account resolution to the phone column
	PhoneOnly bool

	// CheckChannelVerification enforces the policy's phone/email
	// verification requirements for the channel used to log in
	CheckChannelVerification bool

	// CheckAdminEligibility requires an active account holding an active
	// role assignment (or the super-admin type)
	CheckAdminEligibility bool

	// CheckProviderEligibility rejects rejected provider profiles and
	// profiles without the mobile-app entitlement
	CheckProviderEligibility bool
}

// The four entry points of the platform
var (
	AdminScope = RoleScope{
		Name:                  "admin",
		AllowedRoles:          models.AdminUserTypes,
		AccessScope:           models.AdminPanelAccess,
		CheckAdminEligibility: true,
	}

	ProviderScope = RoleScope{
		Name:                     "provider",
		AllowedRoles:             models.ProviderUserTypes,
		AccessScope:              models.ProviderPanelAccess,
		CheckChannelVerification: true,
		CheckProviderEligibility: true,
	}

	CustomerScope = RoleScope{
		Name:                     "customer",
		AllowedRoles:             models.CustomerUserTypes,
		AccessScope:              models.CustomerPanelAccess,
		CheckChannelVerification: true,
	}

	ServicemanScope = RoleScope{
		Name:         "serviceman",
		AllowedRoles: models.ServicemanUserTypes,
		AccessScope:  models.ServicemanAppAccess,
		PhoneOnly:    true,
	}
)

// LoginService runs the credential login state machine for all four
// role-scoped entry points.
type LoginService struct {
	accounts AccountRepository
	policies PolicySource
	tokens   TokenIssuer
	revoker  TokenRevoker
	notifier NotificationSender
	logger   *slog.Logger
	audit    *pkglogger.AuditLogger
	now      func() time.Time
}

// NewLoginService creates a new LoginService
func NewLoginService(
	accounts AccountRepository,
	policies PolicySource,
	tokens TokenIssuer,
	revoker TokenRevoker,
	notifier NotificationSender,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *LoginService {
	return &LoginService{
		accounts: accounts,
		policies: policies,
		tokens:   tokens,
		revoker:  revoker,
		notifier: notifier,
		logger:   logger,
		audit:    audit,
		now:      time.Now,
	}
}

// Login validates credentials for one entry point and issues an access
// token on success. Channel is the identifier type used ("phone" or
// "email") where the entry point distinguishes them.
func (s *LoginService) Login(ctx context.Context, identifier, secret string, scope RoleScope, channel string) (*models.AuthResult, error) {
	result, err := s.login(ctx, identifier, secret, scope, channel)

	metrics.RecordLoginAttempt(scope.Name, outcomeLabel(err))

	event := pkglogger.AuditEvent{
		EventType: "login",
		Scope:     scope.Name,
		Success:   err == nil,
		AccountID: resultAccountID(result),
	}
	if err != nil {
		event.FailureReason = outcomeLabel(err)
	}
	s.audit.LogAuthAttempt(event)

	return result, err
}

func (s *LoginService) login(ctx context.Context, identifier, secret string, scope RoleScope, channel string) (*models.AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return nil, models.ErrBadRequest
	}

	account, err := s.resolveAccount(ctx, identifier, scope)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrAccountNotFound
		}
		s.logger.Error("failed to resolve account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	policy := s.loginPolicy(ctx)

	// Lockout check. An expired block is cleared here as a side effect;
	// the attempt itself is still evaluated on its own merits below.
	if account.IsTempBlocked {
		if remaining, within := s.withinBlockWindow(account.TempBlockTime, policy); within {
			return nil, &models.TemporarilyBlockedError{Remaining: remaining}
		}

		if err := s.accounts.ClearTempBlock(ctx, account.ID); err != nil {
			s.logger.Error("failed to clear expired lockout", slog.String("account_id", account.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	}

	// Verification-state checks come before the credential check so an
	// unverified channel never leaks whether the password was right.
	if scope.CheckChannelVerification {
		if channel == ChannelPhone && policy.PhoneVerification && !account.PhoneVerified {
			if err := s.recordFailure(ctx, account, policy); err != nil {
				return nil, err
			}
			return nil, models.ErrUnverifiedPhone
		}

		if channel == ChannelEmail && policy.EmailVerification && !account.EmailVerified {
			if err := s.recordFailure(ctx, account, policy); err != nil {
				return nil, err
			}
			return nil, models.ErrUnverifiedEmail
		}
	}

	if err := pkgauth.ComparePassword(account.PasswordHash, secret); err != nil {
		if err := s.recordFailure(ctx, account, policy); err != nil {
			return nil, err
		}
		return nil, models.ErrBadCredentials
	}

	if err := s.checkEligibility(ctx, account, scope, policy); err != nil {
		return nil, err
	}

	// Re-read the lockout window once more: a concurrent attempt may have
	// crossed the threshold while this one was in flight.
	blockTime, err := s.accounts.GetBlockTime(ctx, account.ID)
	if err != nil {
		s.logger.Error("failed to re-read lockout state", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if remaining, within := s.withinBlockWindow(blockTime, policy); within {
		return nil, &models.TemporarilyBlockedError{Remaining: remaining}
	}

	token, err := s.tokens.IssueAccessToken(account.ID, scope.AccessScope)
	if err != nil {
		s.logger.Error("failed to issue access token", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("login succeeded",
		slog.String("account_id", account.ID),
		slog.String("scope", scope.Name))

	return &models.AuthResult{
		Token:     token,
		AccountID: account.ID,
		IsActive:  account.IsActive,
	}, nil
}

func (s *LoginService) resolveAccount(ctx context.Context, identifier string, scope RoleScope) (*models.Account, error) {
	if scope.PhoneOnly {
		return s.accounts.GetByPhone(ctx, identifier, scope.AllowedRoles)
	}
	return s.accounts.GetByIdentifier(ctx, identifier, scope.AllowedRoles)
}

func (s *LoginService) checkEligibility(ctx context.Context, account *models.Account, scope RoleScope, policy models.LoginPolicy) error {
	if scope.CheckAdminEligibility {
		// No hit-count increment here: a disabled admin is an operator
		// decision, not a credential failure.
		if !account.IsActive {
			return models.ErrAccountDisabled
		}
		if !account.HasActiveRole && account.UserType != models.UserTypeSuperAdmin {
			return models.ErrAccountDisabled
		}
		return nil
	}

	if scope.CheckProviderEligibility {
		if account.ProviderApproval != nil && *account.ProviderApproval == models.ProviderApprovalRejected {
			if err := s.recordFailure(ctx, account, policy); err != nil {
				return err
			}
			return models.ErrProviderNotApproved
		}
	}

	if !account.IsActive {
		if err := s.recordFailure(ctx, account, policy); err != nil {
			return err
		}
		return models.ErrAccountDisabled
	}

	if scope.CheckProviderEligibility && !account.MobileAppAccess {
		// Feature gating, not a credential failure: no increment.
		return models.ErrSectionNotIncluded
	}

	return nil
}

// recordFailure applies the hit-counter update. The write must be durable
// before the response goes out: losing it would defeat the brute-force
// protection, so a persistence failure is fatal.
func (s *LoginService) recordFailure(ctx context.Context, account *models.Account, policy models.LoginPolicy) error {
	hitCount, blocked, err := s.accounts.RecordFailedLogin(ctx, account.ID, policy.MaxLoginHits)
	if err != nil {
		s.logger.Error("failed to persist login hit count",
			slog.String("account_id", account.ID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	if blocked && !account.IsTempBlocked {
		metrics.RecordLockout()
		s.logger.Warn("account temporarily blocked",
			slog.String("account_id", account.ID),
			slog.Int("hit_count", hitCount))

		if s.notifier != nil {
			go s.notifier.NotifyAccountLocked(context.WithoutCancel(ctx), account, policy.TempBlockDuration)
		}
	}

	return nil
}

func (s *LoginService) withinBlockWindow(blockTime *time.Time, policy models.LoginPolicy) (time.Duration, bool) {
	if blockTime == nil {
		return 0, false
	}

	elapsed := s.now().Sub(*blockTime)
	if elapsed > policy.TempBlockDuration {
		return 0, false
	}

	return policy.TempBlockDuration - elapsed, true
}

func (s *LoginService) loginPolicy(ctx context.Context) models.LoginPolicy {
	policy, err := s.policies.Get(ctx)
	if err != nil {
		// The policy source falls back to defaults itself; only the read
		// failure is worth noting.
		s.logger.Warn("failed to read login policy, using defaults", slog.Any("error", err))
	}
	return policy
}

// Logout revokes the presented access token
func (s *LoginService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return models.ErrUnauthorized
	}

	expiresAt := time.Time{}
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := s.revoker.RevokeToken(ctx, claims.ID, claims.AccountID, claims.Scope, expiresAt, "logout"); err != nil {
		// A duplicate jti means the token is already on the blacklist,
		// which is exactly the state logout wants.
		if errors.Is(err, models.ErrConflict) {
			return nil
		}
		s.logger.Error("failed to revoke token", slog.String("jti", claims.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("logged out", slog.String("account_id", claims.AccountID))
	return nil
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, models.ErrBadCredentials):
		return "bad_credentials"
	case errors.Is(err, models.ErrTemporarilyBlocked):
		return "blocked"
	case errors.Is(err, models.ErrUnverifiedPhone), errors.Is(err, models.ErrUnverifiedEmail):
		return "unverified"
	case errors.Is(err, models.ErrAccountDisabled):
		return "disabled"
	case errors.Is(err, models.ErrProviderNotApproved):
		return "not_approved"
	case errors.Is(err, models.ErrSectionNotIncluded):
		return "section_not_included"
	case errors.Is(err, models.ErrBadRequest):
		return "invalid_input"
	default:
		return "error"
	}
}

func resultAccountID(result *models.AuthResult) string {
	if result == nil {
		return ""
	}
	return result.AccountID
}
