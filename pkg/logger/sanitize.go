package logger

import (
	"net/url"
	"strings"
)

// sensitiveParams are query parameters that must never reach the logs
var sensitiveParams = []string{
	"token",
	"access_token",
	"password",
	"secret",
	"temporary_token",
}

// SanitizeQueryString reports whether a raw query string carries sensitive
// parameters and must be redacted before logging.
func SanitizeQueryString(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		// Unparseable query strings are redacted wholesale
		return true
	}

	for param := range values {
		lower := strings.ToLower(param)
		for _, sensitive := range sensitiveParams {
			if lower == sensitive {
				return true
			}
		}
	}

	return false
}
