package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeAlreadyExists   = "ALREADY_EXISTS"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodeExternalService = "EXTERNAL_SERVICE_ERROR"
	ErrCodeDataIntegrity   = "DATA_INTEGRITY_ERROR"
)

// Validation errors
var (
	ErrEmptyBrand           = NewDomainError(ErrCodeValidation, "project brand must not be empty")
	ErrNoKeywords           = NewDomainError(ErrCodeValidation, "project has no keywords to check")
	ErrNoEngines            = NewDomainError(ErrCodeValidation, "no engines configured for check run")
	ErrInvalidCheckJobState = NewDomainError(ErrCodeValidation, "invalid check job status")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrProjectNotFound      = NewDomainError(ErrCodeNotFound, "project not found")
	ErrCheckNotFound        = NewDomainError(ErrCodeNotFound, "visibility check not found")
	ErrCheckJobNotFound     = NewDomainError(ErrCodeNotFound, "check job not found")
	ErrOrganizationNotFound = NewDomainError(ErrCodeNotFound, "organization not found")
	ErrAPIKeyNotFound       = NewDomainError(ErrCodeNotFound, "api key not found")
)

// Already exists errors
var (
	ErrProjectAlreadyExists      = NewDomainError(ErrCodeAlreadyExists, "project already exists")
	ErrOrganizationAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "organization already exists")
	ErrAPIKeyAlreadyExists       = NewDomainError(ErrCodeAlreadyExists, "api key already exists")
)

// Authorization errors
var (
	ErrAPIKeyRevoked = NewDomainError(ErrCodeUnauthorized, "api key has been revoked")
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid api key")
)

// Data integrity errors surfaced by aggregation when persisted records violate
// the presence/position/citations invariants
var (
	ErrPositionWithoutPresence   = NewDomainError(ErrCodeDataIntegrity, "check has position set but presence is false")
	ErrCitationsDisagreePresence = NewDomainError(ErrCodeDataIntegrity, "check citations count disagrees with presence")
)
