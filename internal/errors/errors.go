package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Request validation errors (REQUEST-001 to REQUEST-099)
	ErrCodeRequestInvalid   ErrorCode = "REQUEST-001"
	ErrCodeRequestEmpty     ErrorCode = "REQUEST-002"
	ErrCodeTaskNotFound     ErrorCode = "REQUEST-003"

	// Upstream AI errors (UPSTREAM-001 to UPSTREAM-099)
	ErrCodeUpstreamUnreachable ErrorCode = "UPSTREAM-001"
	ErrCodeUpstreamTimeout     ErrorCode = "UPSTREAM-002"
	ErrCodeUpstreamAPI         ErrorCode = "UPSTREAM-003"
	ErrCodeUpstreamAuth        ErrorCode = "UPSTREAM-004"

	// Reply parse errors (PARSE-001 to PARSE-099)
	ErrCodeParseReply ErrorCode = "PARSE-001"

	// Storage errors (STORAGE-001 to STORAGE-099)
	ErrCodeStorageRead   ErrorCode = "STORAGE-001"
	ErrCodeStorageWrite  ErrorCode = "STORAGE-002"
	ErrCodeStorageDecode ErrorCode = "STORAGE-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigAPIKeyMissing ErrorCode = "CONFIG-001"
	ErrCodeConfigFileInvalid   ErrorCode = "CONFIG-002"
)

// PrioritizerError represents an enhanced error with code, suggestions, and a cause
type PrioritizerError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *PrioritizerError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *PrioritizerError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error code to an HTTP status code.
// Validation errors are client faults; upstream failures get a gateway
// status so callers can tell retryable from terminal failures.
func (e *PrioritizerError) HTTPStatus() int {
	switch {
	case e.Code == ErrCodeTaskNotFound:
		return http.StatusNotFound
	case strings.HasPrefix(string(e.Code), "REQUEST-"):
		return http.StatusBadRequest
	case strings.HasPrefix(string(e.Code), "UPSTREAM-"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may reasonably retry the request.
func (e *PrioritizerError) Retryable() bool {
	return strings.HasPrefix(string(e.Code), "UPSTREAM-")
}

// New creates a new PrioritizerError
func New(code ErrorCode, message string) *PrioritizerError {
	return &PrioritizerError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new PrioritizerError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *PrioritizerError {
	return &PrioritizerError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *PrioritizerError) WithSuggestion(suggestion string) *PrioritizerError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *PrioritizerError) WithSuggestions(suggestions ...string) *PrioritizerError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// Common error constructors for frequently used errors

// NewValidationError creates a request validation error
func NewValidationError(details string) *PrioritizerError {
	return New(ErrCodeRequestInvalid, fmt.Sprintf("invalid request: %s", details)).
		WithSuggestion("Check the request body against the API documentation")
}

// NewEmptyTasksError creates an error for a prioritize request without tasks
func NewEmptyTasksError() *PrioritizerError {
	return New(ErrCodeRequestEmpty, "no tasks provided").
		WithSuggestion("Provide at least one non-empty task")
}

// NewTaskNotFoundError creates an out-of-range task index error
func NewTaskNotFoundError(index, count int) *PrioritizerError {
	return New(ErrCodeTaskNotFound, fmt.Sprintf("task index %d out of range (session has %d tasks)", index, count)).
		WithSuggestion("Load the session first to see valid task indexes")
}

// NewUpstreamUnreachableError creates an error for a failed AI request
func NewUpstreamUnreachableError(cause error) *PrioritizerError {
	return Wrap(ErrCodeUpstreamUnreachable, "AI provider unreachable", cause).
		WithSuggestion("Check network connectivity to the provider").
		WithSuggestion("Retry the request after a short delay")
}

// NewUpstreamTimeoutError creates an error for a timed-out AI request
func NewUpstreamTimeoutError(cause error) *PrioritizerError {
	return Wrap(ErrCodeUpstreamTimeout, "AI provider request timed out", cause).
		WithSuggestion("Retry the request").
		WithSuggestion("Increase the provider timeout in the configuration if this persists")
}

// NewUpstreamAPIError creates an error for a non-success provider response
func NewUpstreamAPIError(status int, message string) *PrioritizerError {
	return New(ErrCodeUpstreamAPI, fmt.Sprintf("AI provider returned HTTP %d: %s", status, message)).
		WithSuggestion("Retry the request after a short delay")
}

// NewUpstreamAuthError creates a provider authentication error
func NewUpstreamAuthError() *PrioritizerError {
	return New(ErrCodeUpstreamAuth, "authentication with AI provider failed").
		WithSuggestion("Check that GROQ_API_KEY is valid and not expired")
}

// NewParseError creates an error for an unparseable AI reply.
// The API layer recovers from this by returning the unprioritized input.
func NewParseError(raw string) *PrioritizerError {
	return New(ErrCodeParseReply, "AI reply is not the expected JSON structure").
		WithSuggestion(fmt.Sprintf("Raw reply: %.200s", raw))
}

// NewStorageReadError creates a session read error
func NewStorageReadError(path string, cause error) *PrioritizerError {
	return Wrap(ErrCodeStorageRead, fmt.Sprintf("failed to read session file: %s", path), cause).
		WithSuggestion("Check file permissions on the data directory")
}

// NewStorageWriteError creates a session write error
func NewStorageWriteError(path string, cause error) *PrioritizerError {
	return Wrap(ErrCodeStorageWrite, fmt.Sprintf("failed to write session file: %s", path), cause).
		WithSuggestion("Check that the data directory exists and is writable")
}

// NewStorageDecodeError creates an error for a corrupt session file
func NewStorageDecodeError(path string, cause error) *PrioritizerError {
	return Wrap(ErrCodeStorageDecode, fmt.Sprintf("session file is not valid JSON: %s", path), cause).
		WithSuggestion("Remove or repair the session file and save again")
}

// NewAPIKeyMissingError creates a missing-credential startup error
func NewAPIKeyMissingError() *PrioritizerError {
	return New(ErrCodeConfigAPIKeyMissing, "GROQ_API_KEY not found in environment").
		WithSuggestion("Export GROQ_API_KEY before starting the server").
		WithSuggestion("Create an API key at https://console.groq.com/keys")
}

// NewConfigFileError creates an invalid-config-file error
func NewConfigFileError(path string, cause error) *PrioritizerError {
	return Wrap(ErrCodeConfigFileInvalid, fmt.Sprintf("failed to parse config file: %s", path), cause).
		WithSuggestion("Check the YAML syntax of the config file")
}
