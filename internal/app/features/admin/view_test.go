package admin

import (
	"context"
	"testing"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/features/shared"
	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/gateway"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/chaosempire/chaospanel/internal/testutil"
)

func loadedSnapshot(t *testing.T) *projection.Snapshot {
	t.Helper()
	fake := testutil.NewFakeGateway(t)
	gw, err := gateway.New(gateway.Options{BaseURL: fake.URL()})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}
	user := testutil.PrimaryAdmin()
	eng := projection.NewEngine(gw, projection.Actor{Credential: user.Token, ID: user.ID, Tier: user.Role}, projection.Options{})
	if err := eng.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return eng.Snapshot()
}

func TestBuildView_Overview(t *testing.T) {
	snap := loadedSnapshot(t)

	data := buildView(snap, "1", TabOverview, projection.Predicate{}, shared.FilterForm{}, time.UTC)

	if data.Stats.TotalAccounts != 4 || data.Stats.TotalReports != 4 {
		t.Errorf("totals = %d accounts, %d reports", data.Stats.TotalAccounts, data.Stats.TotalReports)
	}
	if got := data.Stats.Share(models.RoleRecruiter).Count; got != 2 {
		t.Errorf("recruiter share = %d, want 2", got)
	}
	if len(data.RecentTable.Rows) != 4 {
		t.Errorf("recent rows = %d, want 4", len(data.RecentTable.Rows))
	}
	if data.RecentTable.Editable {
		t.Error("the overview list should be read-only")
	}
	if data.Accounts != nil || data.Table.Rows != nil {
		t.Error("other tabs should stay empty")
	}
}

func TestBuildView_ReportsFiltered(t *testing.T) {
	snap := loadedSnapshot(t)
	pred := projection.Predicate{SearchText: "storm", RoleFilter: models.RoleRecruiter}

	data := buildView(snap, "1", TabReports, pred, shared.FilterForm{Search: "storm"}, time.UTC)

	if data.Matched != 1 || data.Total != 4 {
		t.Fatalf("matched %d of %d, want 1 of 4", data.Matched, data.Total)
	}
	if data.Table.Rows[0].ID != "3" {
		t.Errorf("row = %s, want report 3", data.Table.Rows[0].ID)
	}
	if !data.Table.Editable || data.Table.Action != "/admin/reports" {
		t.Errorf("table = %+v", data.Table)
	}
	if data.Filters.Export != "/reports/export.xlsx?q=storm" {
		t.Errorf("export link = %q", data.Filters.Export)
	}
}

func TestBuildView_Accounts(t *testing.T) {
	snap := loadedSnapshot(t)

	data := buildView(snap, "1", TabAccounts, projection.Predicate{RoleFilter: models.RoleRecruiter}, shared.FilterForm{}, time.UTC)

	if len(data.Accounts) != 2 {
		t.Fatalf("accounts = %d, want 2 recruiters", len(data.Accounts))
	}
	first := data.Accounts[0]
	if first.ID != "7" || first.ReportCount != 1 || first.IsSelf {
		t.Errorf("first row = %+v", first)
	}

	all := buildView(snap, "1", TabAccounts, projection.Predicate{}, shared.FilterForm{}, time.UTC)
	if !all.Accounts[0].IsSelf {
		t.Error("the acting admin should be marked")
	}
}

func TestBuildView_NoSnapshot(t *testing.T) {
	data := buildView(nil, "1", TabReports, projection.Predicate{}, shared.FilterForm{}, time.UTC)
	if data.Stats.TotalReports != 0 || len(data.Table.Rows) != 0 || data.LoadedAt != "" {
		t.Errorf("expected an empty view, got %+v", data)
	}
}

func TestParseTab(t *testing.T) {
	for in, want := range map[string]string{"": TabOverview, "accounts": TabAccounts, "reports": TabReports, "bogus": TabOverview} {
		if got := parseTab(in); got != want {
			t.Errorf("parseTab(%q) = %q, want %q", in, got, want)
		}
	}
}
