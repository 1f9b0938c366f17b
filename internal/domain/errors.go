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
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeUpstream         = "UPSTREAM_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrEmptyQuery            = NewDomainError(ErrCodeValidation, "query cannot be empty")
	ErrEmptyDocumentText     = NewDomainError(ErrCodeValidation, "document text cannot be empty")
	ErrNoChunksProduced      = NewDomainError(ErrCodeValidation, "document produced no non-empty chunks")
	ErrInvalidVisibility     = NewDomainError(ErrCodeValidation, "invalid document visibility")
	ErrPrivateNeedsProject   = NewDomainError(ErrCodeValidation, "private document requires an owner project")
	ErrInvalidHandoverStatus = NewDomainError(ErrCodeValidation, "invalid handover status")
	ErrHandoverSelfTarget    = NewDomainError(ErrCodeValidation, "cannot create a handover to yourself")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrHandoverNotFound = NewDomainError(ErrCodeNotFound, "handover not found")
	ErrEmployeeNotFound = NewDomainError(ErrCodeNotFound, "employee not found")
)

// Authorization errors
var (
	ErrAccessDenied       = NewDomainError(ErrCodeForbidden, "access denied")
	ErrNotHandoverTarget  = NewDomainError(ErrCodeForbidden, "only the recipient can update handover status")
	ErrNotHandoverSender  = NewDomainError(ErrCodeForbidden, "only the sender can delete a handover")
	ErrInvalidBearerToken = NewDomainError(ErrCodeUnauthorized, "invalid or expired token")
)

// Operation errors
var (
	ErrInvalidStatusTransition = NewDomainError(ErrCodeInvalidOperation, "invalid handover status transition")
)

// NewEmbeddingDimensionError reports a query embedding of the wrong dimension.
func NewEmbeddingDimensionError(want, got int) *DomainError {
	return NewDomainError(ErrCodeValidation,
		fmt.Sprintf("query embedding must have %d dimensions, got %d", want, got))
}

// NewUpstreamError wraps a failure from a remote stage (embed, search, rerank, llm).
func NewUpstreamError(stage string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeUpstream, fmt.Sprintf("%s stage failed", stage), err)
}
