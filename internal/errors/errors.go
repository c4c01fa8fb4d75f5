// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotFound             = errors.New("record not found")
	ErrStoreClosed          = errors.New("store is closed")
	ErrConfigInvalid        = errors.New("invalid configuration")
	ErrInputValidation      = errors.New("input validation failed")
	ErrGenerationInFlight   = errors.New("reflection generation already in progress")
	ErrGenerationThrottled  = errors.New("reflection generation re-triggered too soon")
	ErrTradeAlreadyClosed   = errors.New("trade is already closed")
	ErrQuantityExceeded     = errors.New("partial exit quantity exceeds remaining position")
	ErrUnknownPeriodType    = errors.New("unknown reflection period type")
	ErrReflectionNotFound   = errors.New("reflection not found")
)

// StoreError represents an error from the persistence layer.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store error [%s] %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store error [%s]: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a failure while generating a reflection
// for a single period.
type GenerationError struct {
	PeriodID string
	Type     string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation error [%s %s]: %v", e.Type, e.PeriodID, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(periodType, periodID string, err error) *GenerationError {
	return &GenerationError{
		PeriodID: periodID,
		Type:     periodType,
		Err:      err,
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
