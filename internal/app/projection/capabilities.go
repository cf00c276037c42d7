// internal/app/projection/capabilities.go
package projection

import (
	"context"

	"github.com/chaosempire/chaospanel/internal/domain/models"
)

// Reader is what every dashboard reads.
type Reader interface {
	Reload(ctx context.Context) error
	Ensure(ctx context.Context) error
	View(p Predicate) View
	Accounts(p Predicate) []models.Account
	Stats() Statistics
}

// ReportAuthor can submit reports.
type ReportAuthor interface {
	Reader
	CreateReport(ctx context.Context, in ReportInput) error
}

// ReportEditor can also change and remove any report.
type ReportEditor interface {
	ReportAuthor
	UpdateReport(ctx context.Context, id string, in ReportInput) error
	DeleteReport(ctx context.Context, id string) error
}

// AccountManager administers accounts.
type AccountManager interface {
	Reader
	CreateAccount(ctx context.Context, email, password string) error
	ReassignRole(ctx context.Context, id string, role models.Role) error
	DeleteAccount(ctx context.Context, id string) error
	NarrowToAuthor(ctx context.Context, accountID string) (View, error)
}

// Recruiter enrols subordinates and hands out actions.
type Recruiter interface {
	ReportAuthor
	RegisterSubordinate(ctx context.Context, email, password string) error
	AssignAction(ctx context.Context, id, action string) (string, error)
}

var (
	_ ReportEditor   = (*Engine)(nil)
	_ AccountManager = (*Engine)(nil)
	_ Recruiter      = (*Engine)(nil)
)

// Profile is a role's dashboard: where it lives and what it starts with.
type Profile struct {
	Role  models.Role
	Path  string
	Title string

	// OwnReports restricts the default report list to the acting account.
	OwnReports bool

	CanEditReports    bool
	CanManageAccounts bool
	CanRecruit        bool
}

var profiles = map[models.Role]Profile{
	models.RolePrimaryAdmin: {
		Role:              models.RolePrimaryAdmin,
		Path:              "/admin",
		Title:             "Command Center",
		CanEditReports:    true,
		CanManageAccounts: true,
	},
	models.RoleRecruiter: {
		Role:       models.RoleRecruiter,
		Path:       "/recruiter",
		Title:      "Recruitment Console",
		OwnReports: true,
		CanRecruit: true,
	},
	models.RoleSubordinate: {
		Role:       models.RoleSubordinate,
		Path:       "/resistance",
		Title:      "Resistance Terminal",
		OwnReports: true,
	},
}

// ProfileFor returns role's profile.
func ProfileFor(role models.Role) (Profile, bool) {
	p, ok := profiles[role]
	return p, ok
}

// DefaultPredicate is the filter a dashboard starts from for actingID.
func (p Profile) DefaultPredicate(actingID string) Predicate {
	pred := Predicate{AnonymousMode: models.AnonymousAll}
	if p.OwnReports && actingID != "" {
		pred.SelectedAuthorID = actingID
	}
	return pred
}
