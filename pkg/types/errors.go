package types

import (
	"errors"
	"fmt"
)

// ErrHookNotFound is returned when a hook cannot be found.
type ErrHookNotFound struct {
	ExternalId string
}

func (e *ErrHookNotFound) Error() string {
	return "hook not found: " + e.ExternalId
}

// ErrRunNotFound is returned when a hook run cannot be found.
type ErrRunNotFound struct {
	ExternalId string
}

func (e *ErrRunNotFound) Error() string {
	return "run not found: " + e.ExternalId
}

// ErrUnauthorized is returned on signature or ownership failures. No
// execution is attempted once raised.
type ErrUnauthorized struct {
	Reason string
}

func (e *ErrUnauthorized) Error() string {
	return "unauthorized: " + e.Reason
}

// ErrInvalidTriggerConfig is returned when a hook's trigger configuration
// cannot produce a firing (wrong type, missing variant, bad expression).
// Surfaced as 4xx, never coerced to a default.
type ErrInvalidTriggerConfig struct {
	Detail string
}

func (e *ErrInvalidTriggerConfig) Error() string {
	return "invalid trigger config: " + e.Detail
}

// ErrHookInactive is returned when an automated firing reaches a hook that
// is paused, disabled, or in ERROR.
type ErrHookInactive struct {
	ExternalId string
	Status     HookStatus
}

func (e *ErrHookInactive) Error() string {
	return fmt.Sprintf("hook %s is not active (status %s)", e.ExternalId, e.Status)
}

// ErrWebhookRegistration is returned when subscription creation with the
// onchain notification provider fails. Distinguishable so the caller can
// explain provider-side failures specifically.
type ErrWebhookRegistration struct {
	Provider string
	Err      error
}

func (e *ErrWebhookRegistration) Error() string {
	return fmt.Sprintf("webhook registration with %s failed: %v", e.Provider, e.Err)
}

func (e *ErrWebhookRegistration) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a hook or run not-found error.
func IsNotFound(err error) bool {
	var hook *ErrHookNotFound
	var run *ErrRunNotFound
	return errors.As(err, &hook) || errors.As(err, &run)
}
