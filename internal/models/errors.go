package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrLimitExceeded   = errors.New("upload limit exceeded")
	ErrNotFound        = errors.New("not found")
	// ErrConditionFailed is returned by stores when a conditional write was rejected.
	ErrConditionFailed = errors.New("condition failed")
)

// LimitExceededError carries the counts clients render as "X/Y used".
type LimitExceededError struct {
	Kind  IdentityKind
	Used  int
	Limit int
}

func (e *LimitExceededError) Error() string {
	if e.Kind == IdentityUser {
		return fmt.Sprintf("Daily limit exceeded. You have used %d/%d uploads today.", e.Used, e.Limit)
	}
	return fmt.Sprintf("Guest limit exceeded. You have used %d/%d free uploads. Please sign up to continue.", e.Used, e.Limit)
}

func (e *LimitExceededError) Unwrap() error {
	return ErrLimitExceeded
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InfrastructureError wraps a failure of a store or an external service.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

func NewInfrastructureError(op string, err error) *InfrastructureError {
	return &InfrastructureError{Op: op, Err: err}
}
