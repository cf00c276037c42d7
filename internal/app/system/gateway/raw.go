// internal/app/system/gateway/raw.go
package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexID is an identity field that the remote service may send as a JSON
// number, a JSON string, or null. The zero value is "absent".
type FlexID struct {
	value string
	set   bool
}

// NewFlexID returns a present FlexID holding s. An empty s yields an absent id.
func NewFlexID(s string) FlexID {
	s = strings.TrimSpace(s)
	if s == "" {
		return FlexID{}
	}
	return FlexID{value: s, set: true}
}

// String returns the canonical string form, or "" when absent.
func (f FlexID) String() string { return f.value }

// Present reports whether the field carried a non-null, non-empty value.
func (f FlexID) Present() bool { return f.set }

// UnmarshalJSON accepts numbers, strings, and null. Integral numbers are
// rendered without a fractional part so 7 and 7.0 both become "7".
func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = FlexID{}
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = NewFlexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = NewFlexID(canonicalNumber(n))
	return nil
}

// MarshalJSON writes the id as a string, or null when absent.
func (f FlexID) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

func canonicalNumber(n json.Number) string {
	s := n.String()
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return s
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		return strconv.FormatInt(int64(v), 10)
	}
	return s
}

// RawList is an undecoded JSON array returned by a list endpoint. Elements
// are decoded one at a time by the normalizer so that a single malformed
// element cannot fail the whole batch.
type RawList []json.RawMessage

// RawAccount is the loosely-typed account shape returned by the service.
type RawAccount struct {
	ID    FlexID  `json:"id"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// RawAuthorRef is a populated author object nested in a report.
type RawAuthorRef struct {
	ID    FlexID  `json:"id"`
	Email *string `json:"email"`
}

// RawReport is the loosely-typed report shape returned by the service. The
// author reference may arrive flat (authorId or userId) or nested (author or
// user).
type RawReport struct {
	ID        FlexID        `json:"id"`
	Message   *string       `json:"message"`
	CreatedAt *string       `json:"createdAt"`
	Anonymous *bool         `json:"anonymous"`
	AuthorID  FlexID        `json:"authorId"`
	UserID    FlexID        `json:"userId"`
	Author    *RawAuthorRef `json:"author"`
	User      *RawAuthorRef `json:"user"`
}

// decodeList reads a JSON array body. Elements are left undecoded.
func decodeList(body []byte) (RawList, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, ErrNotArray
	}
	var list RawList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
	}
	return list, nil
}
