package reports_test

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/features/reports"
	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/chaosempire/chaospanel/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func readSheet(t *testing.T, body []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(reports.SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return rows
}

func TestWorkbook(t *testing.T) {
	author := models.Account{ID: "7", Email: "daemon7@chaos.io"}
	created := time.Date(2024, 5, 10, 23, 0, 0, 0, time.UTC)
	rows := []projection.Row{
		{Report: models.Report{ID: "2", Message: "<b>drive</b> &amp; more", CreatedAt: created, AuthorID: "7"}, Author: &author},
		{Report: models.Report{ID: "1", Message: "dark", CreatedAt: created, Anonymous: true}},
		{Report: models.Report{ID: "4", Message: "use <b> here", CreatedAt: created, Anonymous: true}},
		{Report: models.Report{ID: "6", Message: "relay < 12 & <script>ping</script>", CreatedAt: created, AuthorID: "7"}, Author: &author},
	}

	buf, err := reports.Workbook(rows, time.UTC)
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}

	want := [][]string{
		reports.Columns,
		{"2", "2024-05-10 23:00:00", "daemon7@chaos.io", "no", "<b>drive</b> &amp; more"},
		{"1", "2024-05-10 23:00:00", projection.LabelAnonymous, "yes", "dark"},
		{"4", "2024-05-10 23:00:00", projection.LabelAnonymous, "yes", "use <b> here"},
		{"6", "2024-05-10 23:00:00", "daemon7@chaos.io", "no", "relay < 12 & <script>ping</script>"},
	}
	if diff := cmp.Diff(want, readSheet(t, buf.Bytes())); diff != "" {
		t.Errorf("sheet mismatch (-want +got):\n%s", diff)
	}
}

func TestExportPredicate(t *testing.T) {
	sub, _ := projection.ProfileFor(models.RoleSubordinate)
	got := reports.ExportPredicate(sub, "9", projection.Predicate{SearchText: "storm", SelectedAuthorID: "7"})
	if got.SelectedAuthorID != "9" || got.SearchText != "storm" {
		t.Errorf("subordinate export = %+v", got)
	}

	admin, _ := projection.ProfileFor(models.RolePrimaryAdmin)
	got = reports.ExportPredicate(admin, "1", projection.Predicate{SelectedAuthorID: "7", RoleFilter: models.RoleRecruiter})
	if got.SelectedAuthorID != "7" || got.RoleFilter != "" {
		t.Errorf("admin export = %+v", got)
	}
}

func TestServeExport(t *testing.T) {
	panel, _ := testutil.NewTestPanel(t)
	h := reports.NewHandler(panel, zap.NewNop())

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/reports/export.xlsx?q=storm", testutil.PrimaryAdmin())
	rec := testutil.NewRecorder()
	h.ServeExport(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	rows := readSheet(t, rec.Body.Bytes())
	if len(rows) != 2 || rows[1][0] != "3" {
		t.Errorf("rows = %v, want header plus report 3", rows)
	}
}

func TestServeExport_OwnReportsOnly(t *testing.T) {
	panel, _ := testutil.NewTestPanel(t)
	h := reports.NewHandler(panel, zap.NewNop())

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/reports/export.xlsx?author=9", testutil.Recruiter())
	rec := testutil.NewRecorder()
	h.ServeExport(rec, req)

	rows := readSheet(t, rec.Body.Bytes())
	if len(rows) != 2 || rows[1][0] != "2" {
		t.Errorf("rows = %v, want only the recruiter's report 2", rows)
	}
}

func TestServeExport_BadDate(t *testing.T) {
	panel, _ := testutil.NewTestPanel(t)
	h := reports.NewHandler(panel, zap.NewNop())

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/reports/export.xlsx?from=soon", testutil.Subordinate())
	rec := testutil.NewRecorder()
	h.ServeExport(rec, req)

	rec.AssertRedirect(t, "/resistance")
}
