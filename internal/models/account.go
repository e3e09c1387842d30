package models

import (
	"time"
)

// User types. Admin-family types share the admin panel entry point;
// employee accounts are staff logins managed from the admin panel.
const (
	UserTypeAdmin         = "admin"
	UserTypeSuperAdmin    = "super-admin"
	UserTypeEmployee      = "employee"
	UserTypeProviderAdmin = "provider-admin"
	UserTypeCustomer      = "customer"
	UserTypeServiceman    = "serviceman"
)

// Role sets accepted by each login entry point.
var (
	AdminUserTypes      = []string{UserTypeAdmin, UserTypeSuperAdmin, UserTypeEmployee}
	ProviderUserTypes   = []string{UserTypeProviderAdmin}
	CustomerUserTypes   = []string{UserTypeCustomer}
	ServicemanUserTypes = []string{UserTypeServiceman}
)

// Access scopes a token can be issued for.
const (
	AdminPanelAccess    = "admin_panel"
	ProviderPanelAccess = "provider_panel"
	CustomerPanelAccess = "customer_panel"
	ServicemanAppAccess = "serviceman_app"
)

// Provider approval states (providers.is_approved).
const (
	ProviderApprovalPending  = 0
	ProviderApprovalApproved = 1
	ProviderApprovalRejected = 2
)

// Account is a principal able to authenticate against one of the
// role-scoped entry points.
type Account struct {
	ID            string
	FirstName     string
	LastName      string
	Phone         string
	Email         string // empty when detached after a declined social match
	PasswordHash  string
	UserType      string
	IsActive      bool
	PhoneVerified bool
	EmailVerified bool
	LanguageCode  string

	// Progressive lockout state. TempBlockTime is non-nil iff IsTempBlocked.
	LoginHitCount int
	IsTempBlocked bool
	TempBlockTime *time.Time

	// HasActiveRole reports whether an admin-family account holds at least
	// one active role assignment.
	HasActiveRole bool

	// ProviderApproval is the linked provider profile's approval state,
	// nil for accounts without a provider profile.
	ProviderApproval *int

	// MobileAppAccess is the provider's app-access entitlement.
	MobileAppAccess bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountSummary is the account shape returned to clients, e.g. in the
// social-login "confirm this existing account" response.
type AccountSummary struct {
	ID            string `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	UserType      string `json:"user_type"`
	IsActive      bool   `json:"is_active"`
	EmailVerified bool   `json:"is_email_verified"`
}

// Summary converts an account to its client-facing shape.
func (a *Account) Summary() *AccountSummary {
	return &AccountSummary{
		ID:            a.ID,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Phone:         a.Phone,
		Email:         a.Email,
		UserType:      a.UserType,
		IsActive:      a.IsActive,
		EmailVerified: a.EmailVerified,
	}
}
