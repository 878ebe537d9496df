package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationMissingField ErrorCode = "VALIDATION_MISSING_FIELD"
	ErrorCodeValidationBadGateway   ErrorCode = "VALIDATION_UNKNOWN_GATEWAY"

	// Bill Errors (BILL_*)
	ErrorCodeBillNotFound    ErrorCode = "BILL_NOT_FOUND"
	ErrorCodeBillAlreadyPaid ErrorCode = "BILL_ALREADY_PAID"
	ErrorCodeBillImmutable   ErrorCode = "BILL_IMMUTABLE"

	// Balance Errors (BALANCE_*)
	ErrorCodeBalanceNotFound     ErrorCode = "BALANCE_NOT_FOUND"
	ErrorCodeBalanceInsufficient ErrorCode = "BALANCE_INSUFFICIENT"

	// Gateway Errors (GATEWAY_*)
	ErrorCodeGatewayVerificationFailed ErrorCode = "GATEWAY_VERIFICATION_FAILED"
	ErrorCodeGatewayTimeout            ErrorCode = "GATEWAY_TIMEOUT"
	ErrorCodeGatewayError              ErrorCode = "GATEWAY_ERROR"

	// Notification Errors (NOTIFY_*) - always non-fatal
	ErrorCodeNotificationFailed ErrorCode = "NOTIFY_DELIVERY_FAILED"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationMissingField ||
		code == ErrorCodeValidationBadGateway
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeBillNotFound ||
		code == ErrorCodeBalanceNotFound
}

// IsGatewayError checks if an error is a payment gateway error
func IsGatewayError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeGatewayVerificationFailed ||
		code == ErrorCodeGatewayTimeout ||
		code == ErrorCodeGatewayError
}

// Structured error instances
var (
	ErrValidationFailed       = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrValidationMissingField = NewDomainError(ErrorCodeValidationMissingField, "required field missing")
	ErrUnknownGateway         = NewDomainError(ErrorCodeValidationBadGateway, "unknown payment gateway")

	ErrBillNotFound  = NewDomainError(ErrorCodeBillNotFound, "payment request not found")
	ErrBillImmutable = NewDomainError(ErrorCodeBillImmutable, "paid bill cannot be modified")

	ErrBalanceInsufficient = NewDomainError(ErrorCodeBalanceInsufficient, "tenant balance does not cover the bill")

	ErrVerificationFailed = NewDomainError(ErrorCodeGatewayVerificationFailed, "payment could not be verified with the gateway")
	ErrGatewayTimedOut    = NewDomainError(ErrorCodeGatewayTimeout, "payment gateway timeout")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
