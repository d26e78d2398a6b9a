package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeMessageQueue       ErrorCode = "COMMON_015"
	ErrCodeStorage            ErrorCode = "COMMON_016"
)

// Deadline calculation
const (
	ErrCodeCalculation ErrorCode = "CALC_001"
)

// Alert state machine
const (
	ErrCodeStateTransition   ErrorCode = "ALERT_001"
	ErrCodeAlertNotFound     ErrorCode = "ALERT_002"
	ErrCodeAlertVersionStale ErrorCode = "ALERT_003"
)

// Notification dispatch
const (
	ErrCodeDispatchTransient     ErrorCode = "DISPATCH_001"
	ErrCodeDispatchPermanent     ErrorCode = "DISPATCH_002"
	ErrCodeDuplicateNotification ErrorCode = "DISPATCH_003"
	ErrCodeChannelUnsupported    ErrorCode = "DISPATCH_004"
	ErrCodeJobSuperseded         ErrorCode = "DISPATCH_005"
)

// Sweep orchestration
const (
	ErrCodeSweepOverlap ErrorCode = "SWEEP_001"
	ErrCodeSweepTimeout ErrorCode = "SWEEP_002"
)

// Organization
const (
	ErrCodeOrganizationNotFound ErrorCode = "ORG_001"
)

// Short aliases used at call sites.
const (
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeTimeout      = ErrCodeTimeout
	CodeValidation   = ErrCodeValidation

	CodeDatabaseError = ErrCodeDatabaseError
	CodeCacheError    = ErrCodeCacheError
	CodeMessageQueue  = ErrCodeMessageQueue
	CodeStorageError  = ErrCodeStorage
	CodeExternal      = ErrCodeExternalService
	CodeSerialization = ErrCodeSerialization

	CodeCalculation           = ErrCodeCalculation
	CodeStateTransition       = ErrCodeStateTransition
	CodeAlertNotFound         = ErrCodeAlertNotFound
	CodeAlertVersionStale     = ErrCodeAlertVersionStale
	CodeDispatchTransient     = ErrCodeDispatchTransient
	CodeDispatchPermanent     = ErrCodeDispatchPermanent
	CodeDuplicateNotification = ErrCodeDuplicateNotification
	CodeChannelUnsupported    = ErrCodeChannelUnsupported
	CodeJobSuperseded         = ErrCodeJobSuperseded
	CodeSweepOverlap          = ErrCodeSweepOverlap
	CodeSweepTimeout          = ErrCodeSweepTimeout
	CodeOrganizationNotFound  = ErrCodeOrganizationNotFound
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeMessageQueue:       http.StatusInternalServerError,
	ErrCodeStorage:            http.StatusInternalServerError,

	ErrCodeCalculation: http.StatusUnprocessableEntity,

	ErrCodeStateTransition:   http.StatusConflict,
	ErrCodeAlertNotFound:     http.StatusNotFound,
	ErrCodeAlertVersionStale: http.StatusConflict,

	ErrCodeDispatchTransient:     http.StatusBadGateway,
	ErrCodeDispatchPermanent:     http.StatusBadGateway,
	ErrCodeDuplicateNotification: http.StatusConflict,
	ErrCodeChannelUnsupported:    http.StatusBadRequest,
	ErrCodeJobSuperseded:         http.StatusConflict,

	ErrCodeSweepOverlap: http.StatusConflict,
	ErrCodeSweepTimeout: http.StatusGatewayTimeout,

	ErrCodeOrganizationNotFound: http.StatusNotFound,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeMessageQueue:       "message queue error",
	ErrCodeStorage:            "object storage error",

	ErrCodeCalculation: "due date calculation failed",

	ErrCodeStateTransition:   "illegal alert status transition",
	ErrCodeAlertNotFound:     "alert not found",
	ErrCodeAlertVersionStale: "alert was modified concurrently",

	ErrCodeDispatchTransient:     "transient delivery failure",
	ErrCodeDispatchPermanent:     "permanent delivery failure",
	ErrCodeDuplicateNotification: "notification already dispatched",
	ErrCodeChannelUnsupported:    "unsupported notification channel",
	ErrCodeJobSuperseded:         "notification job changed by another deliverer",

	ErrCodeSweepOverlap: "sweep already running",
	ErrCodeSweepTimeout: "sweep exceeded its time budget",

	ErrCodeOrganizationNotFound: "organization not found",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
