package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

// Transport error types. Any of these means the request did not complete with a 2xx response.
const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Non-transport error types
const (
	// ErrorTypeSigningPrerequisite is returned when a signed call is attempted without a user credential
	ErrorTypeSigningPrerequisite ErrorType = "signing_prerequisite"
	// ErrorTypeCredentialExchange is returned when a token endpoint omits required fields
	ErrorTypeCredentialExchange ErrorType = "credential_exchange"
	// ErrorTypeActionFailed is returned when deleting a specific post fails
	ErrorTypeActionFailed ErrorType = "action_failed"
)

// Sentinels for use with errors.Is. Matching is by Type only.
var (
	ErrSigningPrerequisiteMissing = &Error{Type: ErrorTypeSigningPrerequisite}
	ErrCredentialExchangeFailed   = &Error{Type: ErrorTypeCredentialExchange}
	ErrActionFailed               = &Error{Type: ErrorTypeActionFailed}
)

// Error represents an API or workflow error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	// ID is the target id for action failures
	ID string
	// RetryAfter carries the server's Retry-After hint in seconds, if any
	RetryAfter int
	Err        error
}

func (e *Error) Error() string {
	switch e.Type {
	case ErrorTypeActionFailed:
		if e.Err != nil {
			return fmt.Sprintf("action failed for id %s: %v", e.ID, e.Err)
		}
		return fmt.Sprintf("action failed for id %s", e.ID)
	case ErrorTypeSigningPrerequisite, ErrorTypeCredentialExchange:
		return fmt.Sprintf("%s error: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Transport builds a transport error for an HTTP status code
func Transport(code int, msg string) *Error {
	return &Error{
		Type:    TypeForStatus(code),
		Message: msg,
		Code:    code,
	}
}

// Network wraps a failure that happened before any response was received
func Network(err error) *Error {
	return &Error{
		Type:    ErrorTypeNetwork,
		Message: fmt.Sprintf("network error: %v", err),
		Err:     err,
	}
}

// SigningPrerequisiteMissing reports a signed call made by an unauthenticated client
func SigningPrerequisiteMissing(op string) *Error {
	return &Error{
		Type:    ErrorTypeSigningPrerequisite,
		Message: fmt.Sprintf("%s requires a logged in user credential", op),
	}
}

// CredentialExchangeFailed reports a token response missing an expected field
func CredentialExchangeFailed(field string) *Error {
	return &Error{
		Type:    ErrorTypeCredentialExchange,
		Message: fmt.Sprintf("no %s found in response", field),
	}
}

// ActionFailed reports that acting on the target with the given id did not succeed
func ActionFailed(id string, cause error) *Error {
	return &Error{
		Type: ErrorTypeActionFailed,
		ID:   id,
		Err:  cause,
	}
}

// TypeForStatus maps an HTTP status code to a transport error type
func TypeForStatus(code int) ErrorType {
	switch {
	case code == 0:
		return ErrorTypeNetwork
	case code == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrorTypeAuth
	case code == http.StatusNotFound:
		return ErrorTypeNotFound
	case code >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

// IsTransport reports whether err is any transport-level error
func IsTransport(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeAuth, ErrorTypeParsing,
		ErrorTypeNotFound, ErrorTypeServerError, ErrorTypeUnknown:
		return true
	}
	return false
}

// FailedID returns the target id carried by an action failure
func FailedID(err error) (string, bool) {
	var e *Error
	if stderrors.As(err, &e) && e.Type == ErrorTypeActionFailed {
		return e.ID, true
	}
	return "", false
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}
