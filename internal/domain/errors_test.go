package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDomainError_ErrorFormat(t *testing.T) {
	plain := NewDomainError(ErrorCodeDonationNotFound, "donation not found")
	if plain.Error() != "DONATION_NOT_FOUND: donation not found" {
		t.Errorf("unexpected message %q", plain.Error())
	}

	wrapped := WrapError(ErrorCodeDatabaseError, "insert donation", errors.New("connection reset"))
	if !strings.Contains(wrapped.Error(), "connection reset") {
		t.Errorf("wrapped error %q does not contain cause", wrapped.Error())
	}
}

func TestDomainError_IsMatchesByCode(t *testing.T) {
	derived := NewDomainError(ErrorCodeGoalUnavailable, "Goal not found or not active").WithDetail("goal_id", "g1")
	if !errors.Is(derived, ErrGoalUnavailable) {
		t.Error("expected errors.Is to match sentinel with same code")
	}

	wrapped := fmt.Errorf("initiate: %w", derived)
	if !errors.Is(wrapped, ErrGoalUnavailable) {
		t.Error("expected errors.Is to match through fmt wrapping")
	}
	if errors.Is(wrapped, ErrOrganizationInactive) {
		t.Error("expected errors.Is not to match a different code")
	}
}

func TestDomainError_UnwrapCause(t *testing.T) {
	cause := errors.New("pool closed")
	err := WrapError(ErrorCodeDatabaseError, "lookup", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		notFound      bool
		validation    bool
		invalidOp     bool
		configuration bool
	}{
		{name: "organization_not_found", err: ErrOrganizationNotFound, notFound: true},
		{name: "donation_not_found", err: ErrDonationNotFound, notFound: true},
		{name: "amount_invalid", err: ErrValidationAmountInvalid, validation: true},
		{name: "email_invalid", err: ErrValidationEmailInvalid, validation: true},
		{name: "organization_inactive", err: ErrOrganizationInactive, invalidOp: true},
		{name: "goal_unavailable", err: ErrGoalUnavailable, invalidOp: true},
		{name: "credentials_missing", err: ErrOrganizationCredentialsMissing, configuration: true},
		{name: "plain_error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.notFound {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.notFound)
			}
			if got := IsValidationError(tt.err); got != tt.validation {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.validation)
			}
			if got := IsInvalidOperationError(tt.err); got != tt.invalidOp {
				t.Errorf("IsInvalidOperationError() = %v, want %v", got, tt.invalidOp)
			}
			if got := IsConfigurationError(tt.err); got != tt.configuration {
				t.Errorf("IsConfigurationError() = %v, want %v", got, tt.configuration)
			}
		})
	}
}

func TestGetErrorCode_NonDomain(t *testing.T) {
	if code := GetErrorCode(errors.New("x")); code != "" {
		t.Errorf("GetErrorCode() = %q, want empty", code)
	}
	if msg := GetErrorMessage(ErrGoalUnavailable); msg != "Goal not found or not active" {
		t.Errorf("GetErrorMessage() = %q", msg)
	}
}
