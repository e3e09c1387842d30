package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/marketsquad/authgate/internal/auth"
	"github.com/marketsquad/authgate/internal/models"
	"github.com/marketsquad/authgate/internal/services"
	pkghttp "github.com/marketsquad/authgate/pkg/http"
)

// LoginServiceInterface defines the interface for credential login logic
type LoginServiceInterface interface {
	Login(ctx context.Context, identifier, secret string, scope services.RoleScope, channel string) (*models.AuthResult, error)
	Logout(ctx context.Context, tokenString string) error
}

// SocialServiceInterface defines the interface for social login logic
type SocialServiceInterface interface {
	Login(ctx context.Context, medium, token, uniqueID, email string) (*models.SocialOutcome, error)
	ConfirmExistingAccount(ctx context.Context, email, medium string, accepts bool) (*models.SocialOutcome, error)
	RegisterWithSocial(ctx context.Context, firstName, lastName, email, phone, languageCode string) (*models.SocialOutcome, error)
}

// AuthHandler handles the login, social login and logout endpoints
type AuthHandler struct {
	login  LoginServiceInterface
	social SocialServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(login LoginServiceInterface, social SocialServiceInterface) *AuthHandler {
	return &AuthHandler{
		login:  login,
		social: social,
	}
}

// Request DTOs

// AdminLoginRequest represents the admin panel login body
type AdminLoginRequest struct {
	EmailOrPhone string `json:"email_or_phone" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

// ProviderLoginRequest represents the provider panel login body. Type says
// which identifier kind was used; when absent it is inferred.
type ProviderLoginRequest struct {
	EmailOrPhone string `json:"email_or_phone" validate:"required"`
	Password     string `json:"password" validate:"required"`
	Type         string `json:"type" validate:"omitempty,oneof=phone email"`
}

// CustomerLoginRequest represents the customer app login body
type CustomerLoginRequest struct {
	EmailOrPhone string `json:"email_or_phone" validate:"required"`
	Password     string `json:"password" validate:"required"`
	Type         string `json:"type" validate:"required,oneof=phone email"`
	GuestID      string `json:"guest_id" validate:"required,uuid"`
}

// ServicemanLoginRequest represents the serviceman app login body
type ServicemanLoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SocialLoginRequest represents the social login body. For google the
// provider's user id travels inside the token, so unique_id is optional;
// for apple the email is only known server-side.
type SocialLoginRequest struct {
	Token    string `json:"token" validate:"required"`
	UniqueID string `json:"unique_id" validate:"required_unless=Medium google"`
	Email    string `json:"email" validate:"required_unless=Medium apple,omitempty,email"`
	Medium   string `json:"medium" validate:"required,oneof=google facebook apple"`
	GuestID  string `json:"guest_id" validate:"required,uuid"`
}

// ExistingAccountRequest represents the confirm-existing-account body.
// UserResponse is 1 when the user claims the matched account, 0 when they
// disown it.
type ExistingAccountRequest struct {
	Email        string `json:"email" validate:"required,email"`
	UserResponse *int   `json:"user_response" validate:"required,oneof=0 1"`
	Medium       string `json:"medium" validate:"omitempty,oneof=google facebook apple"`
}

// SocialRegistrationRequest represents the social registration body
type SocialRegistrationRequest struct {
	FirstName    string `json:"first_name" validate:"required,max=255"`
	LastName     string `json:"last_name" validate:"required,max=255"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Phone        string `json:"phone" validate:"required,max=15"`
	LanguageCode string `json:"language_code" validate:"omitempty,max=10"`
}

// AdminLogin handles POST /auth/login/admin
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if !decodeLoginRequest(w, r, &req) {
		return
	}

	result, err := h.login.Login(r.Context(), req.EmailOrPhone, req.Password, services.AdminScope, "")
	if err != nil {
		writeLoginError(w, err)
		return
	}

	pkghttp.Write(w, http.StatusOK, pkghttp.CodeLoginSuccess, "Successfully logged in", result)
}

// ProviderLogin handles POST /auth/login/provider
func (h *AuthHandler) ProviderLogin(w http.ResponseWriter, r *http.Request) {
	var req ProviderLoginRequest
	if !decodeLoginRequest(w, r, &req) {
		return
	}

	channel := req.Type
	if channel == "" {
		channel = inferChannel(req.EmailOrPhone)
	}

	result, err := h.login.Login(r.Context(), req.EmailOrPhone, req.Password, services.ProviderScope, channel)
	if err != nil {
		writeLoginError(w, err)
		return
	}

	pkghttp.Write(w, http.StatusOK, pkghttp.CodeLoginSuccess, "Successfully logged in", result)
}

// CustomerLogin handles POST /auth/login/customer
func (h *AuthHandler) CustomerLogin(w http.ResponseWriter, r *http.Request) {
	var req CustomerLoginRequest
	if !decodeLoginRequest(w, r, &req) {
		return
	}

	result, err := h.login.Login(r.Context(), req.EmailOrPhone, req.Password, services.CustomerScope, req.Type)
	if err != nil {
		writeLoginError(w, err)
		return
	}

	pkghttp.Write(w, http.StatusOK, pkghttp.CodeLoginSuccess, "Successfully logged in", result)
}

// ServicemanLogin handles POST /auth/login/serviceman
func (h *AuthHandler) ServicemanLogin(w http.ResponseWriter, r *http.Request) {
	var req ServicemanLoginRequest
	if !decodeLoginRequest(w, r, &req) {
		return
	}

	result, err := h.login.Login(r.Context(), req.Phone, req.Password, services.ServicemanScope, "")
	if err != nil {
		writeLoginError(w, err)
		return
	}

	pkghttp.Write(w, http.StatusOK, pkghttp.CodeLoginSuccess, "Successfully logged in", result)
}

// SocialLogin handles POST /auth/social-login
func (h *AuthHandler) SocialLogin(w http.ResponseWriter, r *http.Request) {
	var req SocialLoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	outcome, err := h.social.Login(r.Context(), req.Medium, req.Token, req.UniqueID, req.Email)
	if err != nil {
		writeSocialError(w, err)
		return
	}

	writeSocialOutcome(w, outcome)
}

// ExistingAccountCheck handles POST /auth/existing-account-check
func (h *AuthHandler) ExistingAccountCheck(w http.ResponseWriter, r *http.Request) {
	var req ExistingAccountRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	accepts := req.UserResponse != nil && *req.UserResponse == 1

	outcome, err := h.social.ConfirmExistingAccount(r.Context(), req.Email, req.Medium, accepts)
	if err != nil {
		writeSocialError(w, err)
		return
	}

	writeSocialOutcome(w, outcome)
}

// SocialRegistration handles POST /auth/social-registration
func (h *AuthHandler) SocialRegistration(w http.ResponseWriter, r *http.Request) {
	var req SocialRegistrationRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	outcome, err := h.social.RegisterWithSocial(r.Context(), req.FirstName, req.LastName, req.Email, req.Phone, req.LanguageCode)
	if err != nil {
		writeSocialError(w, err)
		return
	}

	writeSocialOutcome(w, outcome)
}

// Logout handles POST /auth/logout. Idempotent: logging out without a
// valid session still returns 200 so clients can always clear local state.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := auth.GetTokenFromContext(r)
	if token == "" {
		pkghttp.Write(w, http.StatusOK, pkghttp.CodeAccessDenied, "No active session", nil)
		return
	}

	if err := h.login.Logout(r.Context(), token); err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.Write(w, http.StatusOK, pkghttp.CodeAccessDenied, "No active session", nil)
			return
		}
		pkghttp.WriteInternalError(w)
		return
	}

	pkghttp.Write(w, http.StatusOK, pkghttp.CodeLogoutSuccess, "Successfully logged out", nil)
}

// decodeLoginRequest decodes and validates a credential login body;
// validation failures use the login-specific response code.
func decodeLoginRequest(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		pkghttp.Write(w, http.StatusBadRequest, pkghttp.CodeDefault400, "Invalid request body", nil)
		return false
	}

	if fieldErrors := ValidateRequest(req); fieldErrors != nil {
		pkghttp.WriteFieldErrors(w, http.StatusForbidden, pkghttp.CodeLoginValidation, "Validation failed", fieldErrors)
		return false
	}

	return true
}

// decodeRequest decodes and validates a social-flow body
func decodeRequest(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		pkghttp.Write(w, http.StatusBadRequest, pkghttp.CodeDefault400, "Invalid request body", nil)
		return false
	}

	if fieldErrors := ValidateRequest(req); fieldErrors != nil {
		pkghttp.WriteFieldErrors(w, http.StatusBadRequest, pkghttp.CodeDefault400, "Validation failed", fieldErrors)
		return false
	}

	return true
}

func inferChannel(identifier string) string {
	if strings.Contains(identifier, "@") {
		return services.ChannelEmail
	}
	return services.ChannelPhone
}

func writeLoginError(w http.ResponseWriter, err error) {
	var blocked *models.TemporarilyBlockedError
	if errors.As(err, &blocked) {
		message := fmt.Sprintf("Too many attempts. Try again in %s.", humanizeDuration(blocked.Remaining))
		pkghttp.Write(w, http.StatusUnauthorized, pkghttp.CodeLoginUnauthorized, message, nil)
		return
	}

	switch {
	case errors.Is(err, models.ErrAccountNotFound):
		pkghttp.Write(w, http.StatusNotFound, pkghttp.CodeLoginNotFound, "Account not found", nil)
	case errors.Is(err, models.ErrBadCredentials):
		pkghttp.Write(w, http.StatusUnauthorized, pkghttp.CodeLoginUnauthorized, "Credentials do not match", nil)
	case errors.Is(err, models.ErrAccountDisabled):
		pkghttp.Write(w, http.StatusUnauthorized, pkghttp.CodeAccountDisabled, "Your account has been disabled", nil)
	case errors.Is(err, models.ErrUnverifiedPhone):
		pkghttp.Write(w, http.StatusUnauthorized, pkghttp.CodeUnverifiedPhone, "Phone number is not verified", nil)
	case errors.Is(err, models.ErrUnverifiedEmail):
		pkghttp.Write(w, http.StatusUnauthorized, pkghttp.CodeUnverifiedEmail, "Email address is not verified", nil)
	case errors.Is(err, models.ErrProviderNotApproved):
		pkghttp.Write(w, http.StatusUnauthorized, pkghttp.CodeProviderNotApproved, "Provider registration was not approved", nil)
	case errors.Is(err, models.ErrSectionNotIncluded):
		pkghttp.Write(w, http.StatusForbidden, pkghttp.CodeSectionNotIncluded, "This section is not included in your plan", nil)
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.Write(w, http.StatusBadRequest, pkghttp.CodeDefault400, "Invalid request", nil)
	default:
		pkghttp.WriteInternalError(w)
	}
}

func writeSocialError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrSocialExchange):
		// Soft failure: the mobile clients treat a failed provider
		// exchange as "retry sign-in", not as an application error.
		pkghttp.Write(w, http.StatusOK, pkghttp.CodeDefault401, "Social sign-in could not be verified", nil)
	case errors.Is(err, models.ErrEmailMismatch):
		pkghttp.Write(w, http.StatusForbidden, pkghttp.CodeEmailMismatch, "Email does not match the social account", nil)
	case errors.Is(err, models.ErrPhoneAlreadyInUse):
		pkghttp.Write(w, http.StatusForbidden, pkghttp.CodePhoneAlreadyUsed, "Phone number already in use", nil)
	case errors.Is(err, models.ErrEmailAlreadyInUse):
		pkghttp.Write(w, http.StatusForbidden, pkghttp.CodeEmailAlreadyUsed, "Email address already in use", nil)
	default:
		writeLoginError(w, err)
	}
}

func writeSocialOutcome(w http.ResponseWriter, outcome *models.SocialOutcome) {
	switch {
	case outcome.Authenticated != nil:
		pkghttp.Write(w, http.StatusOK, pkghttp.CodeLoginSuccess, "Successfully logged in", outcome.Authenticated)

	case outcome.Account != nil:
		pkghttp.Write(w, http.StatusOK, pkghttp.CodeDefault200, "An account with this email already exists", map[string]any{
			"user":   outcome.Account,
			"status": false,
		})

	default:
		// Clients branch on status=false to route into the registration
		// (or confirmation) step instead of a session.
		data := map[string]any{
			"temporary_token": outcome.TemporaryToken,
			"status":          false,
		}
		if outcome.Email != nil {
			data["email"] = *outcome.Email
		}
		pkghttp.Write(w, http.StatusOK, pkghttp.CodeDefault200, "Registration required", data)
	}
}

// humanizeDuration renders a remaining block window for client messages
func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		seconds := int(d.Round(time.Second).Seconds())
		if seconds <= 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", seconds)
	}

	minutes := int((d + time.Minute - 1) / time.Minute)
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
