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
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnavailable   = "UNAVAILABLE"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuestion       = NewDomainError(ErrCodeValidation, "question must not be empty")
	ErrUnsupportedLanguage = NewDomainError(ErrCodeValidation, "unsupported language code")
	ErrInvalidChunkConfig  = NewDomainError(ErrCodeValidation, "chunk overlap must be smaller than chunk size")
)

// Retrieval errors
var (
	ErrIndexUnavailable = NewDomainError(ErrCodeUnavailable, "vector index unavailable")
	ErrSessionNotFound  = NewDomainError(ErrCodeNotFound, "session not found")
)

// Configuration errors
var (
	ErrModelMismatch = NewDomainError(ErrCodeConfiguration, "index was built with a different embedding model")
	ErrEmptyCorpus   = NewDomainError(ErrCodeValidation, "corpus contains no readable documents")
)

// Upstream errors
var (
	ErrCompletionFailed = NewDomainError(ErrCodeUpstream, "language model call failed")
	ErrEmbeddingFailed  = NewDomainError(ErrCodeUpstream, "embedding call failed")
)
