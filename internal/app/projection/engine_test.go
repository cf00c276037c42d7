package projection_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/gateway"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/google/go-cmp/cmp"
)

type recordingAuditor struct {
	mu   sync.Mutex
	muts []projection.Mutation
}

func (a *recordingAuditor) Mutation(ctx context.Context, m projection.Mutation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.muts = append(a.muts, m)
}

var admin = projection.Actor{Credential: "tok", ID: "1", Tier: models.RolePrimaryAdmin}

func loadedEngine(t *testing.T, gw *fakeGateway, id projection.Identity) *projection.Engine {
	t.Helper()
	e := projection.NewEngine(gw, id, projection.Options{})
	if err := e.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return e
}

func viewIDs(e *projection.Engine, p projection.Predicate) []string {
	return ids(e.View(p))
}

func TestEngine_ViewBeforeLoadIsEmpty(t *testing.T) {
	e := projection.NewEngine(newFakeGateway(), admin, projection.Options{})
	if e.Loaded() {
		t.Fatal("new engine should not be loaded")
	}
	if got := e.View(projection.Predicate{}).Len(); got != 0 {
		t.Errorf("View len = %d, want 0", got)
	}
	if got := len(e.Accounts(projection.Predicate{})); got != 0 {
		t.Errorf("Accounts len = %d, want 0", got)
	}
}

func TestEngine_ReloadNormalizesAndJoins(t *testing.T) {
	e := loadedEngine(t, newFakeGateway(), admin)

	v := e.View(projection.Predicate{})
	if diff := cmp.Diff([]string{"1", "2", "5"}, ids(v)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if v.Rows[1].Author == nil || v.Rows[1].Author.Email != "daemon@chaos.io" {
		t.Errorf("report 2 author = %+v", v.Rows[1].Author)
	}
	if !v.Rows[2].Orphaned() {
		t.Error("report 5 should be orphaned")
	}
	if got := len(e.Accounts(projection.Predicate{RoleFilter: models.RoleRecruiter})); got != 2 {
		t.Errorf("recruiters = %d, want 2", got)
	}
}

func TestEngine_DeleteReportReloadsWithoutIt(t *testing.T) {
	gw := newFakeGateway()
	e := loadedEngine(t, gw, admin)

	if err := e.DeleteReport(context.Background(), "5"); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "2"}, viewIDs(e, projection.Predicate{})); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	calls := gw.callLog()
	deleteAt := -1
	for i, c := range calls {
		if c == "delete_report" {
			deleteAt = i
		}
	}
	if deleteAt < 0 {
		t.Fatal("delete_report was never sent")
	}
	after := calls[deleteAt+1:]
	if len(after) != 2 {
		t.Errorf("calls after delete = %v, want both list calls", after)
	}
}

func TestEngine_CreateReportAnonymousDropsAuthor(t *testing.T) {
	gw := newFakeGateway()
	e := loadedEngine(t, gw, admin)

	err := e.CreateReport(context.Background(), projection.ReportInput{Message: "  leak  ", Anonymous: true, AuthorID: "7"})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if got := gw.bodies[0]; got.AuthorID != "" || got.Message != "leak" {
		t.Errorf("sent body = %+v, want trimmed message and no author", got)
	}

	v := e.View(projection.Predicate{SearchText: "leak"})
	if v.Len() != 1 {
		t.Fatalf("created report not in reloaded view")
	}
	if r := v.Rows[0].Report; r.AuthorID != "" || !r.Anonymous {
		t.Errorf("stored report = %+v, want anonymous without author", r)
	}
}

func TestEngine_UpdateReportAnonymousDropsAuthor(t *testing.T) {
	gw := newFakeGateway()
	e := loadedEngine(t, gw, admin)

	err := e.UpdateReport(context.Background(), "2", projection.ReportInput{Message: "rewritten", Anonymous: true, AuthorID: "7"})
	if err != nil {
		t.Fatalf("UpdateReport: %v", err)
	}
	if got := gw.bodies[0].AuthorID; got != "" {
		t.Errorf("sent author = %q, want empty", got)
	}
	v := e.View(projection.Predicate{SearchText: "rewritten"})
	if v.Len() != 1 || v.Rows[0].Report.AuthorID != "" {
		t.Errorf("updated report = %+v", v.Rows)
	}
}

func TestEngine_ValidationSendsNothing(t *testing.T) {
	tests := []struct {
		name string
		run  func(e *projection.Engine) error
	}{
		{"blank message", func(e *projection.Engine) error {
			return e.CreateReport(context.Background(), projection.ReportInput{Message: "   "})
		}},
		{"update without id", func(e *projection.Engine) error {
			return e.UpdateReport(context.Background(), "", projection.ReportInput{Message: "m"})
		}},
		{"delete without id", func(e *projection.Engine) error {
			return e.DeleteReport(context.Background(), " ")
		}},
		{"account without password", func(e *projection.Engine) error {
			return e.CreateAccount(context.Background(), "a@x.io", "")
		}},
		{"account without email", func(e *projection.Engine) error {
			return e.CreateAccount(context.Background(), " ", "secret")
		}},
		{"reassign unknown account", func(e *projection.Engine) error {
			return e.ReassignRole(context.Background(), "404", models.RoleRecruiter)
		}},
		{"reassign invalid role", func(e *projection.Engine) error {
			return e.ReassignRole(context.Background(), "9", "JANITOR")
		}},
		{"delete unknown account", func(e *projection.Engine) error {
			return e.DeleteAccount(context.Background(), "404")
		}},
		{"delete all selector", func(e *projection.Engine) error {
			return e.DeleteAccount(context.Background(), "all")
		}},
		{"subordinate without email", func(e *projection.Engine) error {
			return e.RegisterSubordinate(context.Background(), "", "secret")
		}},
		{"empty action", func(e *projection.Engine) error {
			_, err := e.AssignAction(context.Background(), "8", "  ")
			return err
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := newFakeGateway()
			e := loadedEngine(t, gw, admin)
			before := len(gw.callLog())

			err := tc.run(e)
			if projection.Classify(err) != projection.ClassValidation {
				t.Fatalf("got %v, want validation error", err)
			}
			if got := len(gw.callLog()); got != before {
				t.Errorf("gateway calls went from %d to %d", before, got)
			}
		})
	}
}

func TestEngine_FailedMutationKeepsSnapshot(t *testing.T) {
	gw := newFakeGateway()
	e := loadedEngine(t, gw, admin)
	before := e.Snapshot()

	gw.fail["delete_report"] = &gateway.Error{Op: "delete_report", Status: 500, Message: "db down"}
	err := e.DeleteReport(context.Background(), "2")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := projection.Notice(err); got != "db down" {
		t.Errorf("Notice = %q, want %q", got, "db down")
	}
	if e.Snapshot() != before {
		t.Error("snapshot was replaced after a failed mutation")
	}
}

func TestEngine_FailedReloadKeepsSnapshot(t *testing.T) {
	gw := newFakeGateway()
	e := loadedEngine(t, gw, admin)
	before := e.Snapshot()

	gw.fail["list_accounts"] = &gateway.Error{Op: "list_accounts", Status: 401}
	err := e.DeleteReport(context.Background(), "2")

	var re *projection.ReloadError
	if !errors.As(err, &re) {
		t.Fatalf("got %v, want ReloadError", err)
	}
	if projection.Classify(err) != projection.ClassAuthorization {
		t.Errorf("Classify = %v, want authorization", projection.Classify(err))
	}
	if e.Snapshot() != before {
		t.Error("snapshot replaced by a failed reload")
	}
}

func TestEngine_StaleReloadDiscarded(t *testing.T) {
	gw := newFakeGateway()
	e := loadedEngine(t, gw, admin)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	gw.mu.Lock()
	gw.afterListReports = func() {
		blocked := false
		once.Do(func() { blocked = true })
		if blocked {
			close(entered)
			<-release
		}
	}
	gw.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- e.Reload(context.Background()) }()
	<-entered

	// The slow reload captured the old report list. Delete a report and let a
	// newer reload finish first.
	gw.mu.Lock()
	gw.reports = without(gw.reports, "1")
	gw.mu.Unlock()
	if err := e.Reload(context.Background()); err != nil {
		t.Fatalf("second Reload: %v", err)
	}
	newer := e.Snapshot()

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Reload: %v", err)
	}

	if e.Snapshot() != newer {
		t.Error("stale reload replaced a newer snapshot")
	}
	if diff := cmp.Diff([]string{"2", "5"}, viewIDs(e, projection.Predicate{})); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_AccountMutations(t *testing.T) {
	gw := newFakeGateway()
	e := loadedEngine(t, gw, admin)
	ctx := context.Background()

	if err := e.CreateAccount(ctx, " New@Chaos.io ", "secret1"); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if got := e.Accounts(projection.Predicate{SearchText: "new@chaos.io"}); len(got) != 1 || got[0].Role != models.RoleSubordinate {
		t.Fatalf("created account = %+v", got)
	}

	if err := e.ReassignRole(ctx, "9", models.RoleRecruiter); err != nil {
		t.Fatalf("ReassignRole: %v", err)
	}
	if a, _ := e.Snapshot().Account("9"); a.Role != models.RoleRecruiter {
		t.Errorf("role after reassign = %q", a.Role)
	}

	if err := e.DeleteAccount(ctx, "9"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, ok := e.Snapshot().Account("9"); ok {
		t.Error("deleted account still present")
	}
}

func TestEngine_RecruiterOperations(t *testing.T) {
	gw := newFakeGateway()
	aud := &recordingAuditor{}
	recruiter := projection.Actor{Credential: "tok", ID: "7", Tier: models.RoleRecruiter}
	e := projection.NewEngine(gw, recruiter, projection.Options{Auditor: aud})
	ctx := context.Background()
	if err := e.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if err := e.RegisterSubordinate(ctx, "recruit@chaos.io", "secret1"); err != nil {
		t.Fatalf("RegisterSubordinate: %v", err)
	}
	if got := e.Accounts(projection.Predicate{SearchText: "recruit@"}); len(got) != 1 {
		t.Errorf("registered subordinate not listed: %+v", got)
	}

	lists := len(gw.callLog())
	reply, err := e.AssignAction(ctx, "8", "sabotage relay")
	if err != nil {
		t.Fatalf("AssignAction: %v", err)
	}
	if reply != "Action 'sabotage relay' assigned to user 8" {
		t.Errorf("reply = %q", reply)
	}
	if got := len(gw.callLog()); got != lists+1 {
		t.Errorf("AssignAction made %d calls, want 1", got-lists)
	}

	if s := e.Stats(); s.MyReports != 1 {
		t.Errorf("MyReports = %d, want 1", s.MyReports)
	}

	aud.mu.Lock()
	defer aud.mu.Unlock()
	if len(aud.muts) != 2 {
		t.Fatalf("audited %d mutations, want 2", len(aud.muts))
	}
	m := aud.muts[1]
	if m.Op != projection.OpAssignAction || m.ActorID != "7" || m.ActorRole != models.RoleRecruiter || m.TargetID != "8" {
		t.Errorf("audit = %+v", m)
	}
}

func TestEngine_NarrowToAuthor(t *testing.T) {
	e := loadedEngine(t, newFakeGateway(), admin)

	v, err := e.NarrowToAuthor(context.Background(), "7")
	if err != nil {
		t.Fatalf("NarrowToAuthor: %v", err)
	}
	if diff := cmp.Diff([]string{"2"}, ids(v)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if v.Rows[0].AuthorLabel() != "daemon@chaos.io" {
		t.Errorf("author label = %q", v.Rows[0].AuthorLabel())
	}
	if got := e.View(projection.Predicate{}).Len(); got != 3 {
		t.Errorf("held view changed to %d rows", got)
	}

	if _, err := e.NarrowToAuthor(context.Background(), ""); projection.Classify(err) != projection.ClassValidation {
		t.Errorf("empty id: got %v, want validation error", err)
	}
}

func TestRegistry(t *testing.T) {
	reg, err := projection.NewRegistry(2, newFakeGateway(), projection.Options{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	a := reg.Engine("s1", admin)
	if reg.Engine("s1", admin) != a {
		t.Error("same key and identity should return the same engine")
	}
	relogged := projection.Actor{Credential: "tok2", ID: "1", Tier: models.RolePrimaryAdmin}
	if reg.Engine("s1", relogged) == a {
		t.Error("a new credential should get a new engine")
	}

	reg.Engine("s2", admin)
	reg.Engine("s3", admin)
	if got := reg.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
	reg.Drop("s3")
	if got := reg.Len(); got != 1 {
		t.Errorf("Len after Drop = %d, want 1", got)
	}
}

func TestProfileFor(t *testing.T) {
	for _, role := range models.Roles() {
		p, ok := projection.ProfileFor(role)
		if !ok || p.Path == "" {
			t.Errorf("no profile for %s", role)
		}
	}
	p, _ := projection.ProfileFor(models.RoleRecruiter)
	if got := p.DefaultPredicate("7").SelectedAuthorID; got != "7" {
		t.Errorf("recruiter default author = %q, want 7", got)
	}
	p, _ = projection.ProfileFor(models.RolePrimaryAdmin)
	if got := p.DefaultPredicate("1").SelectedAuthorID; got != "" {
		t.Errorf("admin default author = %q, want empty", got)
	}
	if _, ok := projection.ProfileFor("JANITOR"); ok {
		t.Error("unknown role should have no profile")
	}
}
