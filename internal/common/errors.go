// Package common defines shared constants and sentinel errors used across
// client and server layers of SimKeeper. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorValidation         = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Third-party identity provider could not be reached or misbehaved.
	ErrUpstream = errors.New("upstream error")
)

// Violations maps a request field to a human readable problem description.
type Violations map[string]string

// Add records msg for field unless the field already has a violation.
func (v Violations) Add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// Empty reports whether no violations were recorded.
func (v Violations) Empty() bool { return len(v) == 0 }

// ValidationError is returned by services when input fails validation.
// It matches ErrorValidation with errors.Is.
type ValidationError struct {
	Violations Violations
}

// NewValidationError builds a ValidationError holding a single violation.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Violations: Violations{field: msg}}
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrorValidation.Error()
	}
	fields := make([]string, 0, len(e.Violations))
	for f := range e.Violations {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.Violations[f])
	}
	return ErrorValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrorValidation }

// ConflictError reports a unique constraint collision on Field.
// It matches ErrorAlreadyExists with errors.Is.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return ErrorAlreadyExists.Error()
	}
	return e.Field + " " + ErrorAlreadyExists.Error()
}

func (e *ConflictError) Is(target error) bool { return target == ErrorAlreadyExists }
