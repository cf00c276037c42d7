// internal/domain/models/report.go
package models

import "time"

// Report is a free-text record optionally attributed to an Account.
//
// AuthorID is empty when the report is anonymous. A non-anonymous report may
// also have an empty AuthorID, or one that no longer resolves to an Account;
// both are displayable.
type Report struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Anonymous bool      `json:"anonymous"`
	AuthorID  string    `json:"authorId,omitempty"`
}

// HasAuthor reports whether the report carries an author reference.
func (r Report) HasAuthor() bool { return r.AuthorID != "" }

// AnonymousMode restricts a report list by its anonymity flag.
type AnonymousMode string

const (
	AnonymousAll  AnonymousMode = "all"
	AnonymousOnly AnonymousMode = "anonymous"
	PublicOnly    AnonymousMode = "public"
)

// ParseAnonymousMode maps a form value to a mode. Unknown and empty values
// map to AnonymousAll.
func ParseAnonymousMode(s string) AnonymousMode {
	switch AnonymousMode(s) {
	case AnonymousOnly, PublicOnly:
		return AnonymousMode(s)
	}
	return AnonymousAll
}
