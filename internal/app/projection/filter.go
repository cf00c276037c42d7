// internal/app/projection/filter.go
package projection

import (
	"strings"

	"github.com/chaosempire/chaospanel/internal/domain/models"
)

// Matches reports whether r satisfies every constraint in p. author is the
// joined account or nil; RoleFilter is an account-list constraint and is not
// applied to reports.
func Matches(r models.Report, author *models.Account, p Predicate) bool {
	if p.SearchText != "" && !containsFold(r.Message, p.SearchText) {
		return false
	}

	switch p.AnonymousMode {
	case models.AnonymousOnly:
		if !r.Anonymous {
			return false
		}
	case models.PublicOnly:
		if r.Anonymous {
			return false
		}
	}

	// Anonymous reports have no author id, so any author selection excludes them.
	if p.SelectedAuthorID != "" && r.AuthorID != p.SelectedAuthorID {
		return false
	}

	if !p.DateFrom.IsZero() && r.CreatedAt.Before(p.DateFrom) {
		return false
	}
	if !p.DateTo.IsZero() && r.CreatedAt.After(endOfDay(p.DateTo)) {
		return false
	}
	return true
}

// MatchesAccount applies the account-level constraints of p: RoleFilter by
// exact role and SearchText against the email.
func MatchesAccount(a models.Account, p Predicate) bool {
	if p.RoleFilter != "" && a.Role != p.RoleFilter {
		return false
	}
	if p.SearchText != "" && !containsFold(a.Email, p.SearchText) {
		return false
	}
	return true
}

// FilterAccounts returns the accounts matching p in their original order.
// The input slice is not modified.
func FilterAccounts(accounts []models.Account, p Predicate) []models.Account {
	out := make([]models.Account, 0, len(accounts))
	for _, a := range accounts {
		if MatchesAccount(a, p) {
			out = append(out, a)
		}
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
