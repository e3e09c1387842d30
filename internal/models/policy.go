package models

import "time"

// LoginPolicy is the read-only configuration consumed by the login state
// machine. Values come from the business-settings store with these keys:
//
//	maximum_login_hit            failed attempts before a temporary block
//	temporary_login_block_time   block duration in seconds
//	phone_verification           require a verified phone for phone logins
//	email_verification           require a verified email for email logins
type LoginPolicy struct {
	MaxLoginHits      int
	TempBlockDuration time.Duration
	PhoneVerification bool
	EmailVerification bool
}

// DefaultLoginPolicy mirrors the fallbacks used when a setting row is
// absent: 5 attempts, a 10 minute block, no verification requirements.
func DefaultLoginPolicy() LoginPolicy {
	return LoginPolicy{
		MaxLoginHits:      5,
		TempBlockDuration: 600 * time.Second,
	}
}
