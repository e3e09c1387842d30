package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_EnvelopeShape(t *testing.T) {
	rec := httptest.NewRecorder()

	Write(rec, http.StatusOK, CodeLoginSuccess, "Successfully logged in", map[string]string{"token": "abc"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, CodeLoginSuccess, env.ResponseCode)
	assert.Equal(t, "Successfully logged in", env.Message)
	assert.NotNil(t, env.Data)
	assert.Empty(t, env.Errors)
}

func TestWrite_OmitsEmptyData(t *testing.T) {
	rec := httptest.NewRecorder()

	Write(rec, http.StatusUnauthorized, CodeLoginUnauthorized, "Credentials do not match", nil)

	assert.NotContains(t, rec.Body.String(), `"data"`)
	assert.NotContains(t, rec.Body.String(), `"errors"`)
}

func TestWriteFieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteFieldErrors(rec, http.StatusForbidden, CodeLoginValidation, "Validation failed", []FieldError{
		{Field: "email_or_phone", Message: "this field is required"},
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, CodeLoginValidation, env.ResponseCode)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "email_or_phone", env.Errors[0].Field)
}

func TestWriteInternalError(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteInternalError(rec)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, CodeDefault500, env.ResponseCode)
}
