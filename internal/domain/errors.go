package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationAmountInvalid ErrorCode = "VALIDATION_AMOUNT_INVALID"
	ErrorCodeValidationEmailInvalid  ErrorCode = "VALIDATION_EMAIL_INVALID"
	ErrorCodeValidationFieldTooLong  ErrorCode = "VALIDATION_FIELD_TOO_LONG"

	// Organization Errors (ORGANIZATION_*)
	ErrorCodeOrganizationNotFound           ErrorCode = "ORGANIZATION_NOT_FOUND"
	ErrorCodeOrganizationInactive           ErrorCode = "ORGANIZATION_INACTIVE"
	ErrorCodeOrganizationCredentialsMissing ErrorCode = "ORGANIZATION_CREDENTIALS_MISSING"

	// Goal Errors (GOAL_*)
	ErrorCodeGoalUnavailable ErrorCode = "GOAL_UNAVAILABLE"

	// Donation Errors (DONATION_*)
	ErrorCodeDonationNotFound          ErrorCode = "DONATION_NOT_FOUND"
	ErrorCodeDonationReferenceConflict ErrorCode = "DONATION_REFERENCE_CONFLICT"
	ErrorCodeDonationNotPending        ErrorCode = "DONATION_NOT_PENDING"

	// Webhook Errors (WEBHOOK_*)
	ErrorCodeWebhookSignatureMismatch ErrorCode = "WEBHOOK_SIGNATURE_MISMATCH"
	ErrorCodeWebhookDuplicateDelivery ErrorCode = "WEBHOOK_DUPLICATE_DELIVERY"

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

// Is matches another DomainError by code so sentinel comparisons work
// for errors built with WithDetail or WrapError.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
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

// GetErrorMessage returns the client-facing message of a DomainError
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeOrganizationNotFound ||
		code == ErrorCodeDonationNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationAmountInvalid ||
		code == ErrorCodeValidationEmailInvalid ||
		code == ErrorCodeValidationFieldTooLong
}

// IsInvalidOperationError checks if an error rejects an operation on a
// resource that exists but is not in a usable state
func IsInvalidOperationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeOrganizationInactive ||
		code == ErrorCodeGoalUnavailable ||
		code == ErrorCodeDonationNotPending
}

// IsConfigurationError checks if an error is caused by missing tenant setup
func IsConfigurationError(err error) bool {
	return GetErrorCode(err) == ErrorCodeOrganizationCredentialsMissing
}

// Structured error instances
var (
	ErrValidationFailed        = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrValidationAmountInvalid = NewDomainError(ErrorCodeValidationAmountInvalid, "amount must be greater than 0 and at most 100000")
	ErrValidationEmailInvalid  = NewDomainError(ErrorCodeValidationEmailInvalid, "donor email is invalid")

	ErrOrganizationNotFound           = NewDomainError(ErrorCodeOrganizationNotFound, "organization not found")
	ErrOrganizationInactive           = NewDomainError(ErrorCodeOrganizationInactive, "organization is not active")
	ErrOrganizationCredentialsMissing = NewDomainError(ErrorCodeOrganizationCredentialsMissing, "organization payment credentials are not configured")

	ErrGoalUnavailable = NewDomainError(ErrorCodeGoalUnavailable, "Goal not found or not active")

	ErrDonationNotFound          = NewDomainError(ErrorCodeDonationNotFound, "donation not found")
	ErrDonationReferenceConflict = NewDomainError(ErrorCodeDonationReferenceConflict, "external reference already in use")
	ErrDonationNotPending        = NewDomainError(ErrorCodeDonationNotPending, "donation is no longer pending")

	ErrWebhookSignatureMismatch = NewDomainError(ErrorCodeWebhookSignatureMismatch, "webhook signature mismatch")
	ErrWebhookDuplicateDelivery = NewDomainError(ErrorCodeWebhookDuplicateDelivery, "webhook payload already processed")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
