package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims carried by an issued access token. Scope is
// the panel/application the token is valid for (AdminPanelAccess etc.).
type TokenClaims struct {
	Scope     string `json:"scope"`
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}
