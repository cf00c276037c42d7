// internal/app/features/admin/view.go
package admin

import (
	"time"

	"github.com/chaosempire/chaospanel/internal/app/features/shared"
	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/viewdata"
	"github.com/chaosempire/chaospanel/internal/domain/models"
)

// dashboardData is the command center view model. Only the selected tab's
// section is populated beyond the statistics.
type dashboardData struct {
	viewdata.BaseVM
	Profile    projection.Profile
	Tab        string
	LoadNotice string
	LoadedAt   string

	Stats       projection.Statistics
	RecentTable shared.ReportTable

	// reports tab
	Filters shared.FilterBar
	Table   shared.ReportTable
	Matched int
	Total   int
	Authors []models.Account

	// accounts tab
	Accounts    []accountRow
	RoleFilter  string
	RoleOptions []shared.RoleOption
}

type accountRow struct {
	models.Account
	RoleLabel   string
	ReportCount int
	RoleOptions []shared.RoleOption
	IsSelf      bool
}

// buildView projects snap for the given tab. A nil snapshot yields empty
// sections.
func buildView(snap *projection.Snapshot, actingID, tab string, pred projection.Predicate, form shared.FilterForm, loc *time.Location) dashboardData {
	profile, _ := projection.ProfileFor(models.RolePrimaryAdmin)
	data := dashboardData{
		Profile: profile,
		Tab:     tab,
	}

	var reports []models.Report
	var accounts []models.Account
	if snap != nil {
		reports, accounts = snap.Reports(), snap.Accounts()
		data.LoadedAt = snap.LoadedAt().In(loc).Format(shared.DisplayTime)
	}
	data.Stats = projection.Compute(reports, accounts, actingID)

	switch tab {
	case TabOverview:
		all := projection.Project(reports, accounts, projection.Predicate{})
		data.RecentTable = shared.ReportTable{Rows: shared.Rows(all.Recent(RecentCount), loc)}

	case TabReports:
		// Role filtering applies to the accounts tab only.
		pred.RoleFilter = ""
		view := projection.Project(reports, accounts, profile.DefaultPredicate(actingID).Merge(pred))
		data.Matched, data.Total = view.Len(), view.Total
		data.Authors = accounts
		data.Filters = shared.FilterBar{
			Action:  "/admin",
			Tab:     TabReports,
			Form:    form,
			Authors: accounts,
			Export:  "/reports/export.xlsx?" + shared.Values(pred).Encode(),
		}
		data.Table = shared.ReportTable{
			Rows:     shared.Rows(view.Rows, loc),
			Editable: profile.CanEditReports,
			Action:   "/admin/reports",
		}

	case TabAccounts:
		accPred := projection.Predicate{SearchText: pred.SearchText, RoleFilter: pred.RoleFilter}
		data.RoleFilter = string(pred.RoleFilter)
		data.RoleOptions = shared.RoleOptions(pred.RoleFilter)
		data.Filters = shared.FilterBar{Action: "/admin", Tab: TabAccounts, Form: form}
		for _, a := range projection.FilterAccounts(accounts, accPred) {
			data.Accounts = append(data.Accounts, accountRow{
				Account:     a,
				RoleLabel:   a.Role.Label(),
				ReportCount: data.Stats.ReportCount(a.ID),
				RoleOptions: shared.RoleOptions(a.Role),
				IsSelf:      a.ID == actingID,
			})
		}
	}
	return data
}
