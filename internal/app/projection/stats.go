// internal/app/projection/stats.go
package projection

import "github.com/chaosempire/chaospanel/internal/domain/models"

// RoleShare is one role's slice of the account population.
type RoleShare struct {
	Role    models.Role
	Count   int
	Percent float64
}

// Statistics summarizes the full, unfiltered collections.
type Statistics struct {
	TotalAccounts    int
	TotalReports     int
	AnonymousReports int
	PublicReports    int
	MyReports        int
	Roles            []RoleShare
	ReportsByAuthor  map[string]int
}

// Compute derives statistics from the complete collections. actingID may be
// empty, in which case MyReports is zero. Accounts with unknown roles count
// toward TotalAccounts but toward no RoleShare.
func Compute(reports []models.Report, accounts []models.Account, actingID string) Statistics {
	s := Statistics{
		TotalAccounts:   len(accounts),
		TotalReports:    len(reports),
		ReportsByAuthor: make(map[string]int),
	}

	for _, r := range reports {
		if r.Anonymous {
			s.AnonymousReports++
		} else {
			s.PublicReports++
		}
		if r.HasAuthor() {
			s.ReportsByAuthor[r.AuthorID]++
			if actingID != "" && r.AuthorID == actingID {
				s.MyReports++
			}
		}
	}

	counts := make(map[models.Role]int, 3)
	for _, a := range accounts {
		counts[a.Role]++
	}
	for _, role := range models.Roles() {
		share := RoleShare{Role: role, Count: counts[role]}
		if s.TotalAccounts > 0 {
			share.Percent = float64(share.Count) * 100 / float64(s.TotalAccounts)
		}
		s.Roles = append(s.Roles, share)
	}
	return s
}

// Share returns the entry for role, or a zero share.
func (s Statistics) Share(role models.Role) RoleShare {
	for _, rs := range s.Roles {
		if rs.Role == role {
			return rs
		}
	}
	return RoleShare{Role: role}
}

// ReportCount returns how many reports accountID authored.
func (s Statistics) ReportCount(accountID string) int {
	return s.ReportsByAuthor[accountID]
}
