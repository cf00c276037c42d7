// internal/app/projection/predicate.go
package projection

import (
	"fmt"
	"strings"
	"time"

	"github.com/chaosempire/chaospanel/internal/domain/models"
)

// DateLayout is the form and flag layout for predicate dates.
const DateLayout = "2006-01-02"

// Predicate is a conjunction of optional constraints over reports (and, for
// RoleFilter and SearchText, over accounts). Zero-valued fields impose no
// constraint.
type Predicate struct {
	SearchText       string
	AnonymousMode    models.AnonymousMode
	DateFrom         time.Time // start of the first included day
	DateTo           time.Time // start of the last included day
	SelectedAuthorID string
	RoleFilter       models.Role
}

// ParseDate reads a YYYY-MM-DD value as the start of that day in loc. An
// empty string yields the zero time.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Message: fmt.Sprintf("%q is not a date (expected YYYY-MM-DD)", s)}
	}
	return t, nil
}

// endOfDay returns the last representable instant of t's calendar day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
}

// Merge returns p with every field that is set in q replacing p's value.
// It is used to layer request filters over a dashboard's defaults.
func (p Predicate) Merge(q Predicate) Predicate {
	if q.SearchText != "" {
		p.SearchText = q.SearchText
	}
	if q.AnonymousMode != "" && q.AnonymousMode != models.AnonymousAll {
		p.AnonymousMode = q.AnonymousMode
	}
	if !q.DateFrom.IsZero() {
		p.DateFrom = q.DateFrom
	}
	if !q.DateTo.IsZero() {
		p.DateTo = q.DateTo
	}
	if q.SelectedAuthorID != "" {
		p.SelectedAuthorID = q.SelectedAuthorID
	}
	if q.RoleFilter != "" {
		p.RoleFilter = q.RoleFilter
	}
	return p
}

// IsZero reports whether p imposes no constraint at all.
func (p Predicate) IsZero() bool {
	return p.SearchText == "" &&
		(p.AnonymousMode == "" || p.AnonymousMode == models.AnonymousAll) &&
		p.DateFrom.IsZero() && p.DateTo.IsZero() &&
		p.SelectedAuthorID == "" && p.RoleFilter == ""
}

// DateFromValue and DateToValue format the bounds for form inputs.
func (p Predicate) DateFromValue() string { return formatDate(p.DateFrom) }
func (p Predicate) DateToValue() string   { return formatDate(p.DateTo) }

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
