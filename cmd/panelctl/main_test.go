package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/chaosempire/chaospanel/internal/testutil"
)

func run(t *testing.T, fake *testutil.FakeGateway, token string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--gateway", fake.URL(), "--token", token}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestReportsList(t *testing.T) {
	fake := testutil.NewFakeGateway(t)

	out, err := run(t, fake, testutil.TokenFor("1"), "reports", "list", "-q", "storm")
	if err != nil {
		t.Fatalf("reports list: %v", err)
	}
	if !strings.Contains(out, "Packet storm near relay 12") || !strings.Contains(out, "netadmin@chaos.io") {
		t.Errorf("missing report 3 in:\n%s", out)
	}
	if !strings.Contains(out, "1 of 4 reports") {
		t.Errorf("missing count in:\n%s", out)
	}
}

func TestReportsList_Mine(t *testing.T) {
	fake := testutil.NewFakeGateway(t)

	out, err := run(t, fake, testutil.TokenFor("7"), "reports", "list", "--mine")
	if err != nil {
		t.Fatalf("reports list --mine: %v", err)
	}
	if !strings.Contains(out, "1 of 4 reports") || !strings.Contains(out, "Recruitment drive") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestReportsList_BadDate(t *testing.T) {
	fake := testutil.NewFakeGateway(t)

	if _, err := run(t, fake, testutil.TokenFor("1"), "reports", "list", "--from", "last week"); err == nil {
		t.Error("expected an error for an unparsable date")
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("nothing should be fetched, got %v", fake.Calls())
	}
}

func TestReportsCreateAndDelete(t *testing.T) {
	fake := testutil.NewFakeGateway(t)

	if _, err := run(t, fake, testutil.TokenFor("9"), "reports", "create", "Relay 12 is quiet"); err != nil {
		t.Fatalf("create: %v", err)
	}
	id := fake.LastReportID()
	if author, _, _ := fake.ReportAuthor(id); author != "9" {
		t.Errorf("author = %q, want the acting account", author)
	}

	if _, err := run(t, fake, testutil.TokenFor("1"), "reports", "delete", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := fake.ReportMessages()[id]; ok {
		t.Error("report should be deleted")
	}
}

func TestAccounts(t *testing.T) {
	fake := testutil.NewFakeGateway(t)
	token := testutil.TokenFor("1")

	out, err := run(t, fake, token, "accounts", "list", "--role", "DAEMON")
	if err != nil {
		t.Fatalf("accounts list: %v", err)
	}
	if !strings.Contains(out, "daemon7@chaos.io") || strings.Contains(out, "netadmin@chaos.io") {
		t.Errorf("unexpected list:\n%s", out)
	}

	if _, err := run(t, fake, token, "accounts", "role", "9", "DAEMON"); err != nil {
		t.Fatalf("accounts role: %v", err)
	}
	if role, _ := fake.AccountRole("9"); role != models.RoleRecruiter {
		t.Errorf("role = %s", role)
	}

	if _, err := run(t, fake, token, "accounts", "delete", "1"); err == nil {
		t.Error("deleting the acting account should be refused")
	}
	if _, err := run(t, fake, token, "accounts", "delete", "8"); err != nil {
		t.Fatalf("accounts delete: %v", err)
	}
	if fake.HasAccount("daemon8@chaos.io") {
		t.Error("account 8 should be deleted")
	}
}

func TestStats(t *testing.T) {
	fake := testutil.NewFakeGateway(t)

	out, err := run(t, fake, testutil.TokenFor("1"), "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"accounts", "DAEMON", "50.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestLogin(t *testing.T) {
	fake := testutil.NewFakeGateway(t)

	out, err := run(t, fake, "", "login", "--email", "andrei@chaos.io", "--password", testutil.Password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if strings.Count(strings.TrimSpace(out), ".") != 2 {
		t.Errorf("expected a JWT, got %q", out)
	}
}

func TestTokenRequired(t *testing.T) {
	fake := testutil.NewFakeGateway(t)
	t.Setenv(envToken, "")

	if _, err := run(t, fake, "", "stats"); err == nil || !strings.Contains(err.Error(), "no token") {
		t.Errorf("got %v, want a missing token error", err)
	}
}

func TestExpiredToken(t *testing.T) {
	fake := testutil.NewFakeGateway(t)

	if _, err := run(t, fake, testutil.ExpiredTokenFor("1"), "stats"); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Errorf("got %v, want an expiry error", err)
	}
}

func TestPrintReports_MessagesVerbatim(t *testing.T) {
	created := time.Date(2024, 5, 10, 23, 0, 0, 0, time.UTC)
	view := projection.View{
		Rows: []projection.Row{
			{Report: models.Report{ID: "4", Message: "use <b> here", CreatedAt: created, Anonymous: true}},
			{Report: models.Report{ID: "6", Message: "relay < 12 &amp;\tgrid", CreatedAt: created, Anonymous: true}},
		},
		Total: 2,
	}

	var out bytes.Buffer
	if err := printReports(&out, view, time.UTC); err != nil {
		t.Fatalf("printReports: %v", err)
	}
	for _, want := range []string{"use <b> here", "relay < 12 &amp; grid", "2 of 2 reports"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %q in:\n%s", want, out.String())
		}
	}
}
