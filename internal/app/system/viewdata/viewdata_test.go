package viewdata_test

import (
	"net/http/httptest"
	"testing"

	"github.com/chaosempire/chaospanel/internal/app/system/auth"
	"github.com/chaosempire/chaospanel/internal/app/system/flash"
	"github.com/chaosempire/chaospanel/internal/app/system/viewdata"
)

func TestNewBaseVM_Anonymous(t *testing.T) {
	req := httptest.NewRequest("GET", "/login", nil)
	vm := viewdata.NewBaseVM(req, "Sign in", "/")

	if vm.IsLoggedIn || vm.Role != "" || vm.DashboardPath != "" {
		t.Errorf("unexpected signed-in fields %+v", vm)
	}
	if vm.Title != "Sign in" || vm.SiteName != viewdata.SiteName {
		t.Errorf("unexpected page fields %+v", vm)
	}
}

func TestNewBaseVM_SignedInWithFlash(t *testing.T) {
	req := httptest.NewRequest("GET", "/recruiter", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "7", Email: "daemon@chaos.io", Role: "DAEMON", Token: "t"})
	req = flash.WithNotice(req, flash.Notice{Kind: flash.Success, Text: "Saved."})

	vm := viewdata.NewBaseVM(req, "Recruiter", "/")

	if !vm.IsLoggedIn || vm.Role != "DAEMON" || vm.RoleLabel != "Recruiter" {
		t.Errorf("unexpected user fields %+v", vm)
	}
	if vm.DashboardPath != "/recruiter" {
		t.Errorf("DashboardPath = %q, want /recruiter", vm.DashboardPath)
	}
	if vm.Flash == nil || vm.Flash.Text != "Saved." {
		t.Errorf("Flash = %+v", vm.Flash)
	}
	if vm.CurrentPath != "/recruiter" {
		t.Errorf("CurrentPath = %q", vm.CurrentPath)
	}
}
