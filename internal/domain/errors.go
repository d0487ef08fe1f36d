package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes reported alongside every ledger error
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeCalculation = "CALCULATION_ERROR"
)

// Sentinel errors returned by services and repositories
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("already exists")
	ErrOutstandingBalances = errors.New("group has outstanding balances")
)

// ValidationError reports malformed or contradictory input
type ValidationError struct {
	Message string
}

// NewValidationError builds a ValidationError with a formatted message
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Code returns the machine-readable error code
func (e *ValidationError) Code() string {
	return CodeValidation
}

// StatusCode returns the HTTP status hint for the error
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// CalculationError reports a computation that cannot be reconciled,
// e.g. exact splits whose sum diverges from the expense total
type CalculationError struct {
	Message string
}

// NewCalculationError builds a CalculationError with a formatted message
func NewCalculationError(format string, args ...any) *CalculationError {
	return &CalculationError{Message: fmt.Sprintf(format, args...)}
}

func (e *CalculationError) Error() string {
	return e.Message
}

// Code returns the machine-readable error code
func (e *CalculationError) Code() string {
	return CodeCalculation
}

// StatusCode returns the HTTP status hint for the error
func (e *CalculationError) StatusCode() int {
	return http.StatusBadRequest
}

// IsValidation reports whether err wraps a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsCalculation reports whether err wraps a CalculationError
func IsCalculation(err error) bool {
	var target *CalculationError
	return errors.As(err, &target)
}
