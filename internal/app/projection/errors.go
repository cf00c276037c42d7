// internal/app/projection/errors.go
package projection

import (
	"errors"
	"fmt"

	"github.com/chaosempire/chaospanel/internal/app/system/gateway"
)

// ValidationError is a failed precondition. No request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// ReloadError means a mutation was acknowledged but the refresh that should
// follow it failed. The held snapshot predates the mutation.
type ReloadError struct {
	Op  string
	Err error
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("%s succeeded but reload failed: %v", e.Op, e.Err)
}

func (e *ReloadError) Unwrap() error { return e.Err }

// Class groups errors by how they are presented.
type Class int

const (
	ClassNone Class = iota
	ClassAuthorization
	ClassValidation
	ClassRemote
)

func (c Class) String() string {
	switch c {
	case ClassAuthorization:
		return "authorization"
	case ClassValidation:
		return "validation"
	case ClassRemote:
		return "remote"
	}
	return "none"
}

// Classify maps err onto the presentation classes.
func Classify(err error) Class {
	var ve *ValidationError
	switch {
	case err == nil:
		return ClassNone
	case errors.As(err, &ve):
		return ClassValidation
	case gateway.IsUnauthorized(err):
		return ClassAuthorization
	default:
		return ClassRemote
	}
}

// User-facing notices.
const (
	NoticeReauthenticate = "Your session has expired or lacks permission. Please sign in again."
	NoticeGeneric        = "The request could not be completed. Please try again."
	NoticeStale          = "Saved, but the list could not be refreshed. Reload the page to see the latest data."
)

// Notice returns the text to show the user for err.
func Notice(err error) string {
	switch Classify(err) {
	case ClassNone:
		return ""
	case ClassAuthorization:
		return NoticeReauthenticate
	case ClassValidation:
		var ve *ValidationError
		errors.As(err, &ve)
		return ve.Message
	}
	var re *ReloadError
	if errors.As(err, &re) {
		return NoticeStale
	}
	if msg := gateway.RemoteMessage(err); msg != "" {
		return msg
	}
	return NoticeGeneric
}
