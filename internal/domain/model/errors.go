package model

import (
	"errors"
	"fmt"
)

var (
	// ErrClassifierUnavailable is returned when the classifier artifact is not
	// loaded or cannot produce a usable probability.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrAssessmentNotFound is returned when a stored assessment does not exist.
	ErrAssessmentNotFound = errors.New("assessment not found")
)

// ValidationCode classifies why a request payload was rejected.
type ValidationCode string

const (
	ValidationMissingField   ValidationCode = "MISSING_FIELD"
	ValidationOutOfRange     ValidationCode = "OUT_OF_RANGE"
	ValidationInvalidBoolean ValidationCode = "INVALID_BOOLEAN"
	ValidationInvalidType    ValidationCode = "INVALID_TYPE"
)

// ValidationError is returned when a payload fails the feature contract. It is
// the only error a caller ever sees from an assessment.
type ValidationError struct {
	Code  ValidationCode
	Field string
}

func (e *ValidationError) Error() string {
	switch e.Code {
	case ValidationMissingField:
		return fmt.Sprintf("missing required field: %s", e.Field)
	case ValidationOutOfRange:
		return fmt.Sprintf("field %s is out of range", e.Field)
	case ValidationInvalidBoolean:
		return fmt.Sprintf("field %s must be a boolean or 0/1", e.Field)
	case ValidationInvalidType:
		return fmt.Sprintf("field %s has an invalid type", e.Field)
	default:
		return fmt.Sprintf("invalid field %s", e.Field)
	}
}

func newValidationError(code ValidationCode, field string) *ValidationError {
	return &ValidationError{Code: code, Field: field}
}

// FailureReason classifies why the qualitative analysis did not produce text.
type FailureReason string

const (
	FailureTimeout         FailureReason = "TIMEOUT"
	FailureUpstreamStatus  FailureReason = "UPSTREAM_STATUS"
	FailureMalformedOutput FailureReason = "MALFORMED_OUTPUT"
	FailureNotConfigured   FailureReason = "NOT_CONFIGURED"
	FailureTransport       FailureReason = "TRANSPORT"
	FailureCanceled        FailureReason = "CANCELED"
)

// AnalysisFailure is returned by a qualitative analyzer instead of text.
type AnalysisFailure struct {
	Reason     FailureReason
	StatusCode int
	Err        error
}

// NewAnalysisFailure creates an AnalysisFailure with an optional cause.
func NewAnalysisFailure(reason FailureReason, err error) *AnalysisFailure {
	return &AnalysisFailure{Reason: reason, Err: err}
}

func (f *AnalysisFailure) Error() string {
	msg := "qualitative analysis failed: " + string(f.Reason)
	if f.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, f.StatusCode)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *AnalysisFailure) Unwrap() error {
	return f.Err
}
