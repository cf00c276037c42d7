// internal/app/features/admin/actions.go
package admin

import (
	"context"
	"net/http"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/timeouts"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func urlID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func readContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), timeouts.Read())
}

func tabURL(tab string) string {
	return "/admin?tab=" + parseTab(tab)
}

func reportInput(r *http.Request) projection.ReportInput {
	return projection.ReportInput{
		Message:   r.FormValue("message"),
		Anonymous: r.FormValue("anonymous") != "",
		AuthorID:  r.FormValue("author"),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reports                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreateReport files a report. Without an author and not anonymous
// it is attributed to no one.
// POST /admin/reports
func (h *Handler) HandleCreateReport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	in := reportInput(r)
	h.Panel.Act(w, r, s, tabURL(TabReports), "Report created.", func(ctx context.Context) error {
		return s.Engine.CreateReport(ctx, in)
	})
}

// HandleUpdateReport replaces a report's message and attribution.
// POST /admin/reports/{id}/edit
func (h *Handler) HandleUpdateReport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id, in := urlID(r), reportInput(r)
	h.Panel.Act(w, r, s, tabURL(TabReports), "Report updated.", func(ctx context.Context) error {
		return s.Engine.UpdateReport(ctx, id, in)
	})
}

// HandleDeleteReport removes a report.
// POST /admin/reports/{id}/delete
func (h *Handler) HandleDeleteReport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id := urlID(r)
	h.Panel.Act(w, r, s, tabURL(TabReports), "Report deleted.", func(ctx context.Context) error {
		return s.Engine.DeleteReport(ctx, id)
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Accounts                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreateAccount registers an account with the default role.
// POST /admin/accounts
func (h *Handler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	email, password := r.FormValue("email"), r.FormValue("password")
	h.Panel.Act(w, r, s, tabURL(TabAccounts), "Account created.", func(ctx context.Context) error {
		return s.Engine.CreateAccount(ctx, email, password)
	})
}

// HandleReassignRole sets an account's role.
// POST /admin/accounts/{id}/role
func (h *Handler) HandleReassignRole(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id := urlID(r)
	role, _ := models.ParseRole(r.FormValue("role"))
	h.Panel.Act(w, r, s, tabURL(TabAccounts), "Role updated.", func(ctx context.Context) error {
		return s.Engine.ReassignRole(ctx, id, role)
	})
}

// HandleDeleteAccount removes an account. The signed-in admin cannot
// delete their own account.
// POST /admin/accounts/{id}/delete
func (h *Handler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id := urlID(r)
	h.Panel.Act(w, r, s, tabURL(TabAccounts), "Account deleted.", func(ctx context.Context) error {
		if id == s.Actor.ID {
			return &projection.ValidationError{Field: "account", Message: "You cannot delete your own account."}
		}
		return s.Engine.DeleteAccount(ctx, id)
	})
}
