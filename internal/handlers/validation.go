package handlers

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	pkghttp "github.com/marketsquad/authgate/pkg/http"
)

// Shared validator instance, reused across all handlers
var validate = validator.New()

// ValidateRequest validates a request struct and converts the failures to
// the field-level shape the response envelope carries.
func ValidateRequest(req interface{}) []pkghttp.FieldError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []pkghttp.FieldError{{Field: "request", Message: "invalid request"}}
	}

	fieldErrors := make([]pkghttp.FieldError, 0, len(ve))
	for _, fe := range ve {
		fieldErrors = append(fieldErrors, pkghttp.FieldError{
			Field:   snakeCase(fe.Field()),
			Message: formatValidationError(fe),
		})
	}

	return fieldErrors
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "required_unless":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid uuid"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}

// snakeCase converts an exported field name to its json form. Runs of
// uppercase letters ("GuestID") collapse into a single segment.
func snakeCase(field string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range field {
		if r >= 'A' && r <= 'Z' {
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			prevLower = false
			continue
		}
		b.WriteRune(r)
		prevLower = true
	}
	return b.String()
}
