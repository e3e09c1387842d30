package http

import (
	"encoding/json"
	"net/http"
)

// Response codes shared with the mobile and panel clients. The clients
// branch on these strings, not on the HTTP status, so some failures are
// deliberately delivered with status 200.
const (
	CodeLoginSuccess        = "auth_login_200"
	CodeLogoutSuccess       = "auth_logout_200"
	CodeLoginUnauthorized   = "auth_login_401"
	CodeLoginValidation     = "auth_login_403"
	CodeLoginNotFound       = "auth_login_404"
	CodeAccountDisabled     = "account_disabled_401"
	CodeUnverifiedPhone     = "unverified_phone_401"
	CodeUnverifiedEmail     = "unverified_email_401"
	CodeProviderNotApproved = "provider_not_approved_401"
	CodeSectionNotIncluded  = "section_not_include_403"
	CodeAccessDenied        = "access_denied_403"
	CodeEmailMismatch       = "email_mismatch_403"
	CodePhoneAlreadyUsed    = "phone_already_used_403"
	CodeEmailAlreadyUsed    = "email_already_used_403"
	CodeDefault200          = "default_200"
	CodeDefault400          = "default_400"
	CodeDefault401          = "default_401"
	CodeDefault500          = "default_500"
)

// Envelope is the uniform response shape: every outcome, success or
// failure, carries a response code and a human message, with optional data
// and field-level validation errors.
type Envelope struct {
	ResponseCode string       `json:"response_code"`
	Message      string       `json:"message"`
	Data         any          `json:"data,omitempty"`
	Errors       []FieldError `json:"errors,omitempty"`
}

// FieldError carries a validation failure for a single input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Write sends an envelope with the given status, code and message
func Write(w http.ResponseWriter, statusCode int, responseCode, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Encoding errors are logged upstream, never exposed to the client
	_ = json.NewEncoder(w).Encode(Envelope{
		ResponseCode: responseCode,
		Message:      message,
		Data:         data,
	})
}

// WriteFieldErrors sends a validation-failure envelope with per-field messages
func WriteFieldErrors(w http.ResponseWriter, statusCode int, responseCode, message string, errs []FieldError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(Envelope{
		ResponseCode: responseCode,
		Message:      message,
		Errors:       errs,
	})
}

// WriteInternalError sends the generic 500 envelope
func WriteInternalError(w http.ResponseWriter) {
	Write(w, http.StatusInternalServerError, CodeDefault500, "Internal server error", nil)
}
