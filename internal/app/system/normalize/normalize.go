// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email trims and lower-cases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role trims and upper-cases a role label. Wire roles are upper case.
func Role(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// QueryParam trims a query or form value, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// ID trims a selector value and treats "all" (any case) as no selection.
func ID(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}

// Message trims surrounding whitespace from free text.
func Message(s string) string {
	return strings.TrimSpace(s)
}
