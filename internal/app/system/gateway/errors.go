// internal/app/system/gateway/errors.go
package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoCredential is returned before any request is made when an
// authenticated operation is attempted without a token.
var ErrNoCredential = errors.New("gateway: no credential")

// ErrNotArray is returned when a list endpoint answers 2xx with a body that
// is not a JSON array.
var ErrNotArray = errors.New("list response is not an array")

// Error is a failed exchange with the remote service. Status is zero for
// transport failures, in which case Err holds the cause.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("gateway %s: %d %s", e.Op, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("gateway %s: status %d: %v", e.Op, e.Status, e.Err)
	default:
		return fmt.Sprintf("gateway %s: status %d", e.Op, e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err means the credential is missing,
// expired, or insufficient.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrNoCredential) {
		return true
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Status == http.StatusUnauthorized || ge.Status == http.StatusForbidden
	}
	return false
}

// RemoteMessage returns the message the service attached to err, if any.
func RemoteMessage(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Message
	}
	return ""
}

// IsNotFound reports whether the service answered 404.
func IsNotFound(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Status == http.StatusNotFound
}
