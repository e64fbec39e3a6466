package service

import (
	"errors"
	"net/http"
	"time"
)

// ErrorKind classifies login failures.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindRateLimited
	KindAuth
	KindAccountState
	KindInfrastructure
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRateLimited:
		return "rate_limited"
	case KindAuth:
		return "auth"
	case KindAccountState:
		return "account_state"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

// Messages returned to login clients.
const (
	MsgInvalidCredentials = "Invalid username or password"
	MsgAccountDisabled    = "Account is disabled"
	MsgLoginFailed        = "An error occurred during login"
)

// LoginError is the error type returned by LoginService.Login. Message is
// safe to show to the client; Err, when set, is the internal cause.
type LoginError struct {
	Kind       ErrorKind
	Message    string
	RetryAfter time.Duration // set for KindRateLimited
	Err        error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

// Status maps the error kind to an HTTP status code.
func (e *LoginError) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindAuth:
		return http.StatusUnauthorized
	case KindAccountState:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// AsLoginError extracts a *LoginError from err.
func AsLoginError(err error) (*LoginError, bool) {
	var le *LoginError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
