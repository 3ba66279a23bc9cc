package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrConnectivity indicates the server could not be reached.
var ErrConnectivity = errors.New("server unreachable")

// Class groups failure responses by how the caller should react.
type Class string

const (
	ClassQuota        Class = "quota"
	ClassRateLimit    Class = "rate_limit"
	ClassPermission   Class = "permission"
	ClassValidation   Class = "validation"
	ClassNotFound     Class = "not_found"
	ClassAuth         Class = "auth"
	ClassServer       Class = "server"
	ClassConnectivity Class = "connectivity"
)

// Classify maps an HTTP status to a failure class.
func Classify(status int) Class {
	switch {
	case status == http.StatusPaymentRequired:
		return ClassQuota
	case status == http.StatusTooManyRequests:
		return ClassRateLimit
	case status == http.StatusForbidden:
		return ClassPermission
	case status == http.StatusUnauthorized:
		return ClassAuth
	case status == http.StatusNotFound:
		return ClassNotFound
	case status >= 400 && status < 500:
		return ClassValidation
	default:
		return ClassServer
	}
}

// StatusError is a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Class      Class
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// AsStatusError unwraps err to a *StatusError.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
