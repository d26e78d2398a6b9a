package errors

import (
	"fmt"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Compliance engine error taxonomy
// ─────────────────────────────────────────────────────────────────────────────

// NewCalculationError reports an entity whose due date cannot be computed
// (malformed date, non-positive periodicity). It never aborts a sweep.
func NewCalculationError(entityRef, reason string) *AppError {
	return &AppError{
		Code:    CodeCalculation,
		Message: "cannot compute due date",
		Detail:  fmt.Sprintf("entity=%s reason=%s", entityRef, reason),
		Stack:   captureStack(1),
	}
}

// NewStateTransitionError reports an illegal alert status change.
func NewStateTransitionError(from, to string) *AppError {
	return &AppError{
		Code:    CodeStateTransition,
		Message: "illegal alert status transition",
		Detail:  fmt.Sprintf("%s -> %s", from, to),
		Stack:   captureStack(1),
	}
}

// NewDispatchError wraps a channel delivery failure. Transient failures are
// retried by the deliverer; permanent ones fail the job immediately.
func NewDispatchError(channel string, transient bool, cause error) *AppError {
	code := CodeDispatchPermanent
	if transient {
		code = CodeDispatchTransient
	}
	return &AppError{
		Code:    code,
		Message: "notification delivery failed",
		Detail:  "channel=" + channel,
		Cause:   cause,
		Stack:   captureStack(1),
	}
}

// NewSweepOverlapError reports a sweep refused because another sweep holds the
// organization.
func NewSweepOverlapError(organizationID string) *AppError {
	return &AppError{
		Code:    CodeSweepOverlap,
		Message: "sweep already running for organization",
		Detail:  "organization=" + organizationID,
		Stack:   captureStack(1),
	}
}

// IsTransient reports whether err is a retryable dispatch failure.
func IsTransient(err error) bool {
	return IsCode(err, CodeDispatchTransient)
}

// IsStateTransition reports whether err is an illegal status transition.
func IsStateTransition(err error) bool {
	return IsCode(err, CodeStateTransition)
}

// IsSweepOverlap reports whether err was raised by the sweep guard.
func IsSweepOverlap(err error) bool {
	return IsCode(err, CodeSweepOverlap)
}

// Reason flattens err into a single line suitable for the delivery log.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var ae *AppError
	if As(err, &ae) {
		parts := []string{ae.Error()}
		if ae.Cause != nil {
			parts = append(parts, ae.Cause.Error())
		}
		return strings.Join(parts, ": ")
	}
	return err.Error()
}

//Personal.AI order the ending
