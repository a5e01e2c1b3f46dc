package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrUnauthenticated       = errors.New("authentication required")
	ErrTransient             = errors.New("transient data error")
	ErrConversionUnavailable = errors.New("conversion unavailable")
)

// ValidationError reports malformed user input. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AuthError is a 401/403 response or a locally detected invalid token
type AuthError struct {
	Op     string
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	msg := fmt.Sprintf("%s: authentication required", e.Op)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool { return target == ErrUnauthenticated }

// TransientDataError covers timeouts, 5xx, other non-2xx statuses and malformed bodies
type TransientDataError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransientDataError) Error() string {
	msg := e.Op
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransientDataError) Unwrap() error { return e.Err }

func (e *TransientDataError) Is(target error) bool { return target == ErrTransient }

// ConversionUnavailableError means neither the remote service nor the
// fallback table could price the pair. The original amount stays authoritative.
type ConversionUnavailableError struct {
	From string
	To   string
	Err  error
}

func (e *ConversionUnavailableError) Error() string {
	msg := fmt.Sprintf("conversion %s->%s unavailable", e.From, e.To)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionUnavailableError) Unwrap() error { return e.Err }

func (e *ConversionUnavailableError) Is(target error) bool {
	return target == ErrConversionUnavailable
}

// IsAuthError reports whether err must force re-authentication
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsTransient reports whether err is a recoverable data failure
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsAuthStatus reports whether an HTTP status means the session is dead
func IsAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

var authPhrases = []string{
	"unauthorized",
	"unauthenticated",
	"authentication required",
	"session expired",
	"token expired",
}

// LooksLikeAuthMessage matches server error bodies that signal a dead
// session even when the status code does not.
func LooksLikeAuthMessage(body string) bool {
	lower := strings.ToLower(body)
	for _, p := range authPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
