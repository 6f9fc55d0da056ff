package errors

import (
	"errors"
	"fmt"
)

// User-facing messages surfaced by the registration form
const (
	MessageUnsupportedFormat = "Only PDF Aadhaar files are supported."
	MessageUnreadable        = "Unable to extract text from PDF. Please ensure it's a valid UIDAI e-Aadhaar PDF."
	MessagePassword          = "Unable to extract text from PDF: the document is password protected and could not be opened with the supplied password."
	MessageIncomplete        = "Could not extract data from document. Please try a different file."
)

// ExtractionError represents a failure in the identity extraction pipeline with
// the stage it happened in and whether the pipeline can recover from it.
type ExtractionError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	Stage       string    `json:"stage,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Err         error     `json:"-"`
}

// ErrorType represents the categories of the extraction error taxonomy
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeUnsupportedFormat
	ErrorTypeDocumentOpen
	ErrorTypePasswordRequired
	ErrorTypeEmptyDocument
	ErrorTypeIncompleteExtraction
	ErrorTypeValidationFailure
)

// Error implements the error interface
func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Context != "" {
		msg += ": " + e.Context
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is matches another ExtractionError by type, so sentinel comparisons work with errors.Is
func (e *ExtractionError) Is(target error) bool {
	t, ok := target.(*ExtractionError)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Message == ""
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeUnsupportedFormat:
		return "UNSUPPORTED_FORMAT"
	case ErrorTypeDocumentOpen:
		return "DOCUMENT_OPEN"
	case ErrorTypePasswordRequired:
		return "PASSWORD_REQUIRED"
	case ErrorTypeEmptyDocument:
		return "EMPTY_DOCUMENT"
	case ErrorTypeIncompleteExtraction:
		return "INCOMPLETE_EXTRACTION"
	case ErrorTypeValidationFailure:
		return "VALIDATION_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// IsRecoverable reports whether the pipeline handles this error type locally.
// An incomplete primary pass is recovered by the fallback pass, a failed
// candidate validation by trying the next candidate, and a password request
// by the single password prompt.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeIncompleteExtraction, ErrorTypeValidationFailure, ErrorTypePasswordRequired:
		return true
	default:
		return false
	}
}

// UserMessage returns the human-readable message shown to the uploader
func (et ErrorType) UserMessage() string {
	switch et {
	case ErrorTypeUnsupportedFormat:
		return MessageUnsupportedFormat
	case ErrorTypeDocumentOpen, ErrorTypeEmptyDocument:
		return MessageUnreadable
	case ErrorTypePasswordRequired:
		return MessagePassword
	default:
		return MessageIncomplete
	}
}

// Sentinels for errors.Is checks
var (
	ErrUnsupportedFormat    = &ExtractionError{Type: ErrorTypeUnsupportedFormat}
	ErrDocumentOpen         = &ExtractionError{Type: ErrorTypeDocumentOpen}
	ErrPasswordRequired     = &ExtractionError{Type: ErrorTypePasswordRequired}
	ErrEmptyDocument        = &ExtractionError{Type: ErrorTypeEmptyDocument}
	ErrIncompleteExtraction = &ExtractionError{Type: ErrorTypeIncompleteExtraction}
	ErrValidationFailure    = &ExtractionError{Type: ErrorTypeValidationFailure}
)

// New creates a new ExtractionError
func New(errorType ErrorType, message string) *ExtractionError {
	return &ExtractionError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
	}
}

// Wrap wraps a cause as an ExtractionError of the given type
func Wrap(errorType ErrorType, message string, err error) *ExtractionError {
	e := New(errorType, message)
	e.Err = err
	return e
}

// WithContext adds context to an existing ExtractionError
func (e *ExtractionError) WithContext(context string) *ExtractionError {
	e.Context = context
	return e
}

// WithStage records the pipeline stage the error was raised in
func (e *ExtractionError) WithStage(stage string) *ExtractionError {
	e.Stage = stage
	return e
}

// UserMessage returns the message to surface to the uploader
func (e *ExtractionError) UserMessage() string {
	return e.Type.UserMessage()
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown if err is not an ExtractionError
func TypeOf(err error) ErrorType {
	var e *ExtractionError
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}
