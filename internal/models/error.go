package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")
)

// Login rejection reasons
var (
	ErrAccountNotFound     = errors.New("no account matches the identifier")
	ErrBadCredentials      = errors.New("credentials do not match")
	ErrAccountDisabled     = errors.New("account is disabled")
	ErrUnverifiedPhone     = errors.New("phone number is not verified")
	ErrUnverifiedEmail     = errors.New("email address is not verified")
	ErrProviderNotApproved = errors.New("provider account is not approved")
	ErrSectionNotIncluded  = errors.New("app access is not included in the subscription")
	ErrTemporarilyBlocked  = errors.New("account is temporarily blocked")
)

// Social login rejection reasons
var (
	ErrEmailMismatch     = errors.New("email does not match the provider account")
	ErrSocialExchange    = errors.New("social identity exchange failed")
	ErrPhoneAlreadyInUse = errors.New("phone number already used by another account")
	ErrEmailAlreadyInUse = errors.New("email already used by another account")
)

// TemporarilyBlockedError carries the remaining lockout window so callers
// can tell the user how long to wait. errors.Is matches ErrTemporarilyBlocked.
type TemporarilyBlockedError struct {
	Remaining time.Duration
}

func (e *TemporarilyBlockedError) Error() string {
	return fmt.Sprintf("account is temporarily blocked for another %s", e.Remaining)
}

func (e *TemporarilyBlockedError) Is(target error) bool {
	return target == ErrTemporarilyBlocked
}
