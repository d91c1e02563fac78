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

// Is matches another DomainError by code and message so wrapped sentinels
// compare equal with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
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
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodeUpstream         = "UPSTREAM_ERROR"
)

// Validation errors
var (
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query cannot be empty")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidSourceType    = NewDomainError(ErrCodeValidation, "invalid source type")
	ErrNoInputs             = NewDomainError(ErrCodeValidation, "no documents to ingest")
	ErrInvalidTemplate      = NewDomainError(ErrCodeValidation, "invalid document template")
)

// Not found errors
var (
	ErrDocumentNotFound  = NewDomainError(ErrCodeNotFound, "document not found")
	ErrIngestionNotFound = NewDomainError(ErrCodeNotFound, "ingestion record not found")
)

// Operation errors
var (
	ErrEmbeddingSpaceMismatch = NewDomainError(ErrCodeInvalidOperation, "query embedder does not match the index embedding space")
	ErrEmptyDocument          = NewDomainError(ErrCodeInvalidOperation, "document has no extractable text")
	ErrConfluenceUnavailable  = NewDomainError(ErrCodeInvalidOperation, "confluence is not configured")
	ErrExportNotConfigured    = NewDomainError(ErrCodeInvalidOperation, "export storage not configured")
)

// Upstream errors
var (
	ErrUpstreamFailure      = NewDomainError(ErrCodeUpstream, "upstream service failed")
	ErrStorageOperationFail = NewDomainError(ErrCodeInternalError, "storage operation failed")
)
