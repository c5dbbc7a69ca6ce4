package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// RemoteKind tags what went wrong talking to the upstream API.
type RemoteKind int

const (
	// KindNetwork covers transport failures and unreadable response bodies.
	KindNetwork RemoteKind = iota
	// KindServer is a non-2xx answer carrying the server's own message.
	KindServer
	// KindValidation is a local required-field or precondition failure; no request was sent.
	KindValidation
	// KindAccountDeleted means the account behind the session no longer exists.
	KindAccountDeleted
)

func (k RemoteKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	case KindAccountDeleted:
		return "account_deleted"
	default:
		return "unknown"
	}
}

// CodeAccountDeleted is the structured error code the API sends for a deleted account.
const CodeAccountDeleted = "ACCOUNT_DELETED"

// legacyAccountDeletedMessage is what older API builds send instead of a code.
const legacyAccountDeletedMessage = "User not found"

type RemoteError struct {
	Kind       RemoteKind
	StatusCode int
	Code       string
	Message    string
	Cause      error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Kind == KindNetwork && e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	default:
		return e.Message
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Cause
}

func NewNetworkError(message string, cause error) *RemoteError {
	return &RemoteError{Kind: KindNetwork, Message: message, Cause: cause}
}

func NewValidationError(message string) *RemoteError {
	return &RemoteError{Kind: KindValidation, Message: message}
}

// NewServerError classifies a non-2xx upstream answer from its status, code and message.
func NewServerError(statusCode int, code, message string) *RemoteError {
	if message == "" {
		message = http.StatusText(statusCode)
	}

	kind := KindServer
	if code == CodeAccountDeleted || strings.Contains(message, legacyAccountDeletedMessage) {
		kind = KindAccountDeleted
	}

	return &RemoteError{Kind: kind, StatusCode: statusCode, Code: code, Message: message}
}

// AsRemote extracts a RemoteError from an error chain.
func AsRemote(err error) (*RemoteError, bool) {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr, true
	}
	return nil, false
}

func IsAccountDeleted(err error) bool {
	remoteErr, ok := AsRemote(err)
	return ok && remoteErr.Kind == KindAccountDeleted
}

// UserMessage is the single line shown in the banner for any failure.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	if remoteErr, ok := AsRemote(err); ok {
		switch remoteErr.Kind {
		case KindNetwork:
			return "Unable to reach the server. Please try again."
		case KindAccountDeleted:
			return "Your account is no longer available. Please sign in again."
		default:
			return remoteErr.Message
		}
	}

	var validation ValidationErrors
	if errors.As(err, &validation) {
		return validation.Error()
	}

	var apiErr *ApiErr
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}

	return err.Error()
}
