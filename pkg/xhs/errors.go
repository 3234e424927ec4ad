package xhs

import "fmt"

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("xhs %s error (code %d): %s", e.Type, e.Code, e.Message)
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing:
		return false
	default:
		return false
	}
}

// IsRetryableError checks if err carries a retryable error type
func IsRetryableError(err error) bool {
	if apiErr, ok := err.(*Error); ok {
		return IsRetryable(apiErr.Type)
	}
	return false
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}

// envelopeError converts an unsuccessful API envelope into a typed error.
// Session expiry surfaces as a business code, not as an HTTP status.
func envelopeError(code int, msg string) *Error {
	errType := ErrorTypeUnknown
	switch code {
	case -100, -101: // login expired / banned session
		errType = ErrorTypeAuth
	case -510000: // risk control
		errType = ErrorTypeRateLimit
	case 300012: // note not found / taken down
		errType = ErrorTypeNotFound
	}
	if msg == "" {
		msg = "request not successful"
	}
	return &Error{
		Type:    errType,
		Message: msg,
		Code:    code,
	}
}
