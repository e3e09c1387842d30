package models

// Social login mediums.
const (
	MediumGoogle   = "google"
	MediumFacebook = "facebook"
	MediumApple    = "apple"
)

// SocialClaims is the normalized identity produced by exchanging a
// provider token, whichever medium it came from. Subject is the provider's
// user id ("sub" for google/apple, "id" for facebook); KeyID is the key id
// some providers include in the decoded payload. Either being present is
// treated as proof of identity by the email-match check.
type SocialClaims struct {
	Medium  string
	Email   string
	Name    string
	Subject string
	KeyID   string
}

// AuthResult is returned on successful authentication: the issued token
// plus the account id and active flag the clients branch on.
type AuthResult struct {
	Token     string `json:"token"`
	AccountID string `json:"account_id"`
	IsActive  bool   `json:"is_active"`
}

// SocialOutcome is the result of a social login or existing-account
// confirmation. Exactly one of the branches is populated:
//
//   - Authenticated: the account matched and is verified; tokens issued.
//   - Account: the account matched but its email is unverified; the client
//     asks the user to confirm ownership.
//   - TemporaryToken: no account matched; the client continues to the
//     social registration step carrying the token. Email is the
//     provider-returned address for apple logins, where the client never
//     saw it.
type SocialOutcome struct {
	Authenticated  *AuthResult
	Account        *AccountSummary
	TemporaryToken string
	Email          *string
}
