package shared_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/features/shared"
	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/flash"
	"github.com/chaosempire/chaospanel/internal/app/system/gateway"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/chaosempire/chaospanel/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

func newPanel(t *testing.T) (*shared.Panel, *testutil.FakeGateway) {
	t.Helper()
	fake := testutil.NewFakeGateway(t)
	gw, err := gateway.New(gateway.Options{BaseURL: fake.URL()})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}
	reg, err := projection.NewRegistry(8, gw, projection.Options{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	fl := flash.New([]byte("test-flash-key-0123456789abcdef0"), false, zap.NewNop())
	return shared.NewPanel(reg, fl, time.UTC, zap.NewNop()), fake
}

func TestPredicateFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin?q=grid&anon=public&from=2024-05-01&to=2024-05-10&author=all&role=daemon", nil)

	p, form, err := shared.PredicateFromQuery(req, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := projection.Predicate{
		SearchText:    "grid",
		AnonymousMode: models.PublicOnly,
		DateFrom:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		DateTo:        time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		RoleFilter:    models.RoleRecruiter,
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("predicate mismatch (-want +got):\n%s", diff)
	}
	if form.Author != "all" || form.Role != "daemon" {
		t.Errorf("form should echo raw values, got %+v", form)
	}
}

func TestPredicateFromQuery_BadDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin?from=yesterday&to=2024-05-10", nil)

	p, _, err := shared.PredicateFromQuery(req, time.UTC)
	if err == nil {
		t.Fatal("expected an error for an unparsable date")
	}
	if projection.Classify(err) != projection.ClassValidation {
		t.Errorf("class = %v, want validation", projection.Classify(err))
	}
	if !p.DateFrom.IsZero() {
		t.Errorf("bad date should not constrain, got %v", p.DateFrom)
	}
	if p.DateToValue() != "2024-05-10" {
		t.Errorf("good date should survive, got %q", p.DateToValue())
	}
}

func TestValues(t *testing.T) {
	p := projection.Predicate{
		SearchText:       "storm",
		AnonymousMode:    models.AnonymousAll,
		DateTo:           time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC),
		SelectedAuthorID: "9",
	}
	got := shared.Values(p).Encode()
	if got != "author=9&q=storm&to=2024-05-12" {
		t.Errorf("got %q", got)
	}
}

func TestRows(t *testing.T) {
	author := models.Account{ID: "7", Email: "daemon7@chaos.io", Role: models.RoleRecruiter}
	created := time.Date(2024, 5, 10, 23, 0, 0, 0, time.UTC)
	rows := []projection.Row{
		{Report: models.Report{ID: "1", Message: "a <b>bold</b>\nclaim", CreatedAt: created, Anonymous: true}},
		{Report: models.Report{ID: "2", Message: "mine", CreatedAt: created, AuthorID: "7"}, Author: &author},
		{Report: models.Report{ID: "5", Message: "lost", CreatedAt: created, AuthorID: "42"}},
	}

	got := shared.Rows(rows, time.UTC)

	if got[0].Author != projection.LabelAnonymous || got[1].Author != "daemon7@chaos.io" || got[2].Author != projection.LabelUnknownAuthor {
		t.Errorf("author labels = %q, %q, %q", got[0].Author, got[1].Author, got[2].Author)
	}
	if !got[2].Orphaned || got[1].Orphaned {
		t.Errorf("orphan flags = %v, %v", got[1].Orphaned, got[2].Orphaned)
	}
	if strings.Contains(string(got[0].Message), "<b>") {
		t.Errorf("message markup should be escaped, got %q", got[0].Message)
	}
	if got[0].Created != "2024-05-10 23:00" {
		t.Errorf("created = %q", got[0].Created)
	}
}

func TestRoleOptions(t *testing.T) {
	opts := shared.RoleOptions(models.RoleSubordinate)
	if len(opts) != 3 {
		t.Fatalf("expected 3 options, got %d", len(opts))
	}
	for _, o := range opts {
		if o.Selected != (o.Value == "NETWORK_ADMIN") {
			t.Errorf("option %s selected=%v", o.Value, o.Selected)
		}
	}
}

func TestPanel_Session(t *testing.T) {
	panel, _ := newPanel(t)

	if _, ok := panel.Session(httptest.NewRequest(http.MethodGet, "/admin", nil)); ok {
		t.Error("anonymous request should have no session")
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/admin", testutil.PrimaryAdmin())
	s, ok := panel.Session(req)
	if !ok {
		t.Fatal("expected a session for a signed-in user")
	}
	again, _ := panel.Session(req)
	if s.Engine != again.Engine {
		t.Error("the same session key should return the same engine")
	}
}

func TestPanel_FailAuthorization(t *testing.T) {
	panel, _ := newPanel(t)
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/admin/reports", testutil.PrimaryAdmin())
	s, _ := panel.Session(req)

	rec := testutil.NewRecorder()
	panel.Fail(rec, req, s, &gateway.Error{Op: "list_reports", Status: http.StatusUnauthorized}, "/admin")

	rec.AssertRedirect(t, "/login?return=%2Fadmin")
	if rec.Cookie("chaospanel_flash") == nil {
		t.Error("expected a flash cookie")
	}
	if panel.Registry.Len() != 0 {
		t.Errorf("engine should be dropped, registry holds %d", panel.Registry.Len())
	}
}

func TestPanel_FailRemote(t *testing.T) {
	panel, _ := newPanel(t)
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/admin/reports", testutil.PrimaryAdmin())
	s, _ := panel.Session(req)

	rec := testutil.NewRecorder()
	panel.Fail(rec, req, s, errors.New("boom"), "/admin?tab=reports")

	rec.AssertRedirect(t, "/admin?tab=reports")
	if panel.Registry.Len() != 1 {
		t.Error("a remote failure should keep the engine")
	}
}

func TestPanel_Load(t *testing.T) {
	panel, fake := newPanel(t)
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/admin", testutil.PrimaryAdmin())
	s, _ := panel.Session(req)

	notice, ok := panel.Load(httptest.NewRecorder(), req, s)
	if !ok || notice != "" {
		t.Fatalf("Load = %q, %v", notice, ok)
	}
	if got := len(s.Engine.Snapshot().Reports()); got != 4 {
		t.Errorf("loaded %d reports, want 4", got)
	}

	fake.Fail("GET /api/reports", http.StatusInternalServerError)
	notice, ok = panel.Refresh(httptest.NewRecorder(), req, s)
	if !ok || notice == "" {
		t.Errorf("a remote failure should render with a notice, got %q, %v", notice, ok)
	}
}

func TestPanel_FailedRefreshKeepsSnapshot(t *testing.T) {
	tests := []struct {
		name         string
		breakGateway func(*testutil.FakeGateway)
	}{
		{"server error", func(g *testutil.FakeGateway) { g.Fail("GET /api/reports", http.StatusInternalServerError) }},
		{"accounts server error", func(g *testutil.FakeGateway) { g.Fail("GET /auth/allUsers", http.StatusBadGateway) }},
		{"list not an array", func(g *testutil.FakeGateway) { g.Garble("GET /api/reports") }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			panel, fake := newPanel(t)
			req := testutil.NewAuthenticatedRequest(http.MethodGet, "/resistance", testutil.PrimaryAdmin())
			s, _ := panel.Session(req)

			if _, ok := panel.Load(httptest.NewRecorder(), req, s); !ok {
				t.Fatal("initial load answered the request")
			}
			before := s.Engine.Snapshot()

			tc.breakGateway(fake)
			notice, ok := panel.Refresh(httptest.NewRecorder(), req, s)
			if !ok || notice == "" {
				t.Fatalf("Refresh = %q, %v; want an inline notice", notice, ok)
			}

			after := s.Engine.Snapshot()
			if after == nil {
				t.Fatal("failed refresh discarded the snapshot")
			}
			if after != before {
				t.Error("failed refresh replaced the snapshot")
			}
			if got := len(after.Reports()); got != 4 {
				t.Errorf("snapshot holds %d reports, want 4", got)
			}
			if got := len(after.Accounts()); got != 4 {
				t.Errorf("snapshot holds %d accounts, want 4", got)
			}
		})
	}
}

func TestPanel_RefreshReloadsHeldSnapshot(t *testing.T) {
	panel, _ := newPanel(t)
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/resistance", testutil.PrimaryAdmin())
	s, _ := panel.Session(req)

	if _, ok := panel.Load(httptest.NewRecorder(), req, s); !ok {
		t.Fatal("initial load answered the request")
	}
	gen := s.Engine.Snapshot().Generation()

	if notice, ok := panel.Refresh(httptest.NewRecorder(), req, s); !ok || notice != "" {
		t.Fatalf("Refresh = %q, %v", notice, ok)
	}
	if got := s.Engine.Snapshot().Generation(); got <= gen {
		t.Errorf("generation = %d, want > %d", got, gen)
	}
}

func TestPanel_LoadUnauthorized(t *testing.T) {
	panel, _ := newPanel(t)
	user := testutil.PrimaryAdmin()
	user.Token = "not-a-token"
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/admin", user)
	s, _ := panel.Session(req)

	rec := testutil.NewRecorder()
	if _, ok := panel.Load(rec, req, s); ok {
		t.Fatal("expected the request to be answered")
	}
	rec.AssertRedirect(t, "/login?return=%2Fadmin")
}
