package errors

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "CTRY_001", ErrCodeCountryNotFound.String())
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatusForCode(ErrCodeCountryNotFound))
	assert.Equal(t, http.StatusBadRequest, HTTPStatusForCode(ErrCodeFilterInvalid))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrCodeDatasetFormat))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrorCode("NOPE_999")))
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "country not found", DefaultMessageForCode(ErrCodeCountryNotFound))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("NOPE_999")))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeBadRequest))
	assert.False(t, IsClientError(ErrCodeInternal))
}

func TestIsServerError(t *testing.T) {
	assert.True(t, IsServerError(ErrCodeDatasetUnreadable))
	assert.False(t, IsServerError(ErrCodeNotFound))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "DATASET", ModuleForCode(ErrCodeDatasetInvalidRecord))
	assert.Equal(t, "FLT", ModuleForCode(ErrCodeFilterInvalid))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}

func TestErrorCodeFormat_Convention(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z]+_\d{3}$`)
	for code := range ErrorCodeHTTPStatus {
		assert.Regexp(t, re, string(code))
	}
}

func TestErrorCodeMappings_Completeness(t *testing.T) {
	for code := range ErrorCodeHTTPStatus {
		_, hasMessage := ErrorCodeMessage[code]
		assert.True(t, hasMessage, "missing message for %s", code)
	}
	for code := range ErrorCodeMessage {
		_, hasStatus := ErrorCodeHTTPStatus[code]
		assert.True(t, hasStatus, "missing status for %s", code)
	}
}
