package errors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var allCodes = []ErrorCode{
	ErrCodeInternal, ErrCodeBadRequest, ErrCodeNotFound, ErrCodeConflict, ErrCodeTimeout,
	ErrCodeValidation, ErrCodeDatabaseError, ErrCodeCacheError, ErrCodeMessageQueue, ErrCodeStorage,
	ErrCodeCalculation,
	ErrCodeStateTransition, ErrCodeAlertNotFound, ErrCodeAlertVersionStale,
	ErrCodeDispatchTransient, ErrCodeDispatchPermanent, ErrCodeDuplicateNotification, ErrCodeChannelUnsupported, ErrCodeJobSuperseded,
	ErrCodeSweepOverlap, ErrCodeSweepTimeout,
	ErrCodeOrganizationNotFound,
}

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "COMMON_001", ErrCodeInternal.String())
	assert.Equal(t, "SWEEP_001", ErrCodeSweepOverlap.String())
}

func TestHTTPStatusForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeInternal, 500},
		{ErrCodeBadRequest, 400},
		{ErrCodeNotFound, 404},
		{ErrCodeAlertNotFound, 404},
		{ErrCodeStateTransition, 409},
		{ErrCodeSweepOverlap, 409},
		{ErrCodeValidation, 422},
		{ErrCodeSweepTimeout, 504},
		{ErrorCode("UNKNOWN"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, HTTPStatusForCode(tt.code), tt.code)
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "internal server error", DefaultMessageForCode(ErrCodeInternal))
	assert.Equal(t, "sweep already running", DefaultMessageForCode(ErrCodeSweepOverlap))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("UNKNOWN")))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeBadRequest))
	assert.True(t, IsClientError(ErrCodeStateTransition))
	assert.False(t, IsClientError(ErrCodeInternal))
}

func TestIsServerError(t *testing.T) {
	assert.True(t, IsServerError(ErrCodeInternal))
	assert.True(t, IsServerError(ErrCodeDispatchTransient))
	assert.False(t, IsServerError(ErrCodeBadRequest))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
	assert.Equal(t, "CALC", ModuleForCode(ErrCodeCalculation))
	assert.Equal(t, "ALERT", ModuleForCode(ErrCodeStateTransition))
	assert.Equal(t, "DISPATCH", ModuleForCode(ErrCodeDispatchPermanent))
	assert.Equal(t, "SWEEP", ModuleForCode(ErrCodeSweepOverlap))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}

func TestErrorCodeFormat_Convention(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z]+_\d{3}$`)
	for _, code := range allCodes {
		assert.Regexp(t, re, string(code))
	}
}

func TestErrorCodeMappings_Completeness(t *testing.T) {
	for _, code := range allCodes {
		_, hasStatus := ErrorCodeHTTPStatus[code]
		_, hasMessage := ErrorCodeMessage[code]
		assert.True(t, hasStatus, "missing status for %s", code)
		assert.True(t, hasMessage, "missing message for %s", code)
	}
}

//Personal.AI order the ending
