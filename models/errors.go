package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies every failure the gateway can return.
type ErrorKind string

const (
	KindEncoding          ErrorKind = "encoding_error"
	KindValidation        ErrorKind = "validation_error"
	KindProviderError     ErrorKind = "provider_error"
	KindProviderRejection ErrorKind = "provider_rejection"
	KindNormalization     ErrorKind = "normalization_error"
	KindTimeout           ErrorKind = "timeout"
	KindSuperseded        ErrorKind = "superseded"
)

// RejectionReason refines a ProviderRejection.
type RejectionReason string

const (
	ReasonColdStart    RejectionReason = "cold_start"
	ReasonRateLimited  RejectionReason = "rate_limited"
	ReasonInvalidInput RejectionReason = "invalid_input"
	ReasonUnavailable  RejectionReason = "unavailable"
)

// InferenceError is the only error type returned across the gateway
// boundary.
type InferenceError struct {
	Kind            ErrorKind
	Reason          RejectionReason
	ProviderMessage string
	StatusCode      int
	// RetryAfter is the wait the provider suggested, zero when unknown.
	RetryAfter  time.Duration
	IsRetryable bool
	Err         error
}

func (e *InferenceError) Error() string {
	msg := string(e.Kind)
	if e.Reason != "" {
		msg += " (" + string(e.Reason) + ")"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status %d", e.StatusCode)
	}
	if e.ProviderMessage != "" {
		msg += ": " + e.ProviderMessage
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// AsInferenceError extracts an *InferenceError from err's chain.
func AsInferenceError(err error) (*InferenceError, bool) {
	var ie *InferenceError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// KindOf returns the error kind of err, or "" when err is not an
// *InferenceError.
func KindOf(err error) ErrorKind {
	if ie, ok := AsInferenceError(err); ok {
		return ie.Kind
	}
	return ""
}

func NewValidationError(msg string) *InferenceError {
	return &InferenceError{Kind: KindValidation, ProviderMessage: msg}
}

func NewEncodingError(msg string, err error) *InferenceError {
	return &InferenceError{Kind: KindEncoding, ProviderMessage: msg, Err: err}
}

// NewProviderError reports a transport failure. It is never retryable.
func NewProviderError(statusCode int, err error) *InferenceError {
	return &InferenceError{Kind: KindProviderError, StatusCode: statusCode, Err: err}
}

// NewProviderRejection reports a well-formed failure answered by the
// provider. Only cold starts and rate limits are retryable.
func NewProviderRejection(reason RejectionReason, statusCode int, msg string, retryAfter time.Duration) *InferenceError {
	return &InferenceError{
		Kind:            KindProviderRejection,
		Reason:          reason,
		StatusCode:      statusCode,
		ProviderMessage: msg,
		RetryAfter:      retryAfter,
		IsRetryable:     reason == ReasonColdStart || reason == ReasonRateLimited,
	}
}

func NewNormalizationError(msg string) *InferenceError {
	return &InferenceError{Kind: KindNormalization, ProviderMessage: msg}
}

func NewTimeoutError(err error) *InferenceError {
	return &InferenceError{Kind: KindTimeout, Err: err}
}

func NewSupersededError(seq uint64) *InferenceError {
	return &InferenceError{Kind: KindSuperseded, ProviderMessage: fmt.Sprintf("submission %d was superseded by a newer one", seq)}
}
