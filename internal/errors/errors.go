// internal/errors/errors.go
package appErrors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrorKind classifies every failure a call attempt can produce. The
// transient/terminal split drives the retry decision.
type ErrorKind string

const (
	KindInvalidPhoneNumber ErrorKind = "invalid_phone_number"
	KindAuthError          ErrorKind = "auth_error"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindRateLimited        ErrorKind = "rate_limited"
	KindTimedOut           ErrorKind = "timed_out"
	KindCallFailed         ErrorKind = "call_failed" // remote reported the call failed (busy, no answer)
)

// Transient reports whether retrying can be expected to help.
func (k ErrorKind) Transient() bool {
	switch k {
	case KindServiceUnavailable, KindRateLimited, KindTimedOut, KindCallFailed:
		return true
	}
	return false
}

// CallError is a classified failure from the calling service boundary.
type CallError struct {
	Kind    ErrorKind
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewInvalidPhoneNumber(raw string) error {
	return &CallError{Kind: KindInvalidPhoneNumber, Message: fmt.Sprintf("cannot parse %q into a valid number", raw)}
}

func NewAuthError(msg string) error {
	return &CallError{Kind: KindAuthError, Message: msg}
}

func NewServiceUnavailable(msg string) error {
	return &CallError{Kind: KindServiceUnavailable, Message: msg}
}

func NewRateLimited(msg string) error {
	return &CallError{Kind: KindRateLimited, Message: msg}
}

func NewTimedOut(msg string) error {
	return &CallError{Kind: KindTimedOut, Message: msg}
}

func NewCallFailed(msg string) error {
	return &CallError{Kind: KindCallFailed, Message: msg}
}

// KindOf extracts the classification from an error. Deadline expiry maps to
// timed_out; anything unclassified is treated as service_unavailable so it
// stays retryable.
func KindOf(err error) ErrorKind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimedOut
	}
	return KindServiceUnavailable
}

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID uuid.UUID
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id uuid.UUID) error {
	return &ErrCampaignNotFound{CampaignID: id}
}
