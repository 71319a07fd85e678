package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindNetwork
	KindServer
	KindConflict
	KindRateLimit
	KindNotFound
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindConflict:
		return "conflict"
	case KindRateLimit:
		return "rate_limit"
	case KindNotFound:
		return "not_found"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

const (
	MsgAuthFailed     = "Authentication failed. Please login again."
	MsgRequestTimeout = "Request timeout. Please check your connection and try again."
	MsgNetworkFailed  = "Network error. Please check your connection and try again."
)

// Error is the structured failure returned by every backend call.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String() + " error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Message == "" && other.Kind == e.Kind
}

func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindServer, KindRateLimit:
		return true
	default:
		return false
	}
}

var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrNetwork    = &Error{Kind: KindNetwork}
	ErrServer     = &Error{Kind: KindServer}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrRateLimit  = &Error{Kind: KindRateLimit}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrRequest    = &Error{Kind: KindRequest}
)

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func Validationf(field, format string, args ...interface{}) *Error {
	return Validation(field, fmt.Sprintf(format, args...))
}

func Auth(status int, message string) *Error {
	return &Error{Kind: KindAuth, Status: status, Message: message}
}

func Network(message string, err error) *Error {
	return &Error{Kind: KindNetwork, Message: message, Err: err}
}

// FromStatus builds the error for a non-2xx response. An empty message falls
// back to "HTTP <status> Error".
func FromStatus(status int, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("HTTP %d Error", status)
	}
	return &Error{Kind: KindForStatus(status), Status: status, Message: message}
}

func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindRequest
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindRequest
	default:
		return KindUnknown
	}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

func IsRetryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}
