// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrScenarioNotFound   = errors.New("scenario not found")
	ErrDatabaseError      = errors.New("database error")
	ErrAnalystUnavailable = errors.New("analyst unavailable")
)

// ValidationError represents a rejected model input. It matches
// ErrInvalidParameter under errors.Is.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidParameter
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// StoreError represents a failed scenario store operation.
type StoreError struct {
	Operation string
	Name      string
	Err       error
}

func (e *StoreError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("store error [%s] %s: %v", e.Operation, e.Name, e.Err)
	}
	return fmt.Sprintf("store error [%s]: %v", e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(operation, name string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		Name:      name,
		Err:       err,
	}
}

// AnalystError represents an error from the commentary service.
type AnalystError struct {
	Operation string
	Err       error
}

func (e *AnalystError) Error() string {
	return fmt.Sprintf("analyst error [%s]: %v", e.Operation, e.Err)
}

func (e *AnalystError) Unwrap() error {
	return e.Err
}

// NewAnalystError creates a new AnalystError.
func NewAnalystError(operation string, err error) *AnalystError {
	return &AnalystError{
		Operation: operation,
		Err:       err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
