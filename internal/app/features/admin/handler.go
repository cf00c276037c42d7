// internal/app/features/admin/handler.go
package admin

import (
	"net/http"

	"github.com/chaosempire/chaospanel/internal/app/features/shared"
	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/viewdata"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Tabs of the command center.
const (
	TabOverview = "overview"
	TabAccounts = "accounts"
	TabReports  = "reports"
)

// RecentCount is how many reports the overview lists.
const RecentCount = 5

// Handler serves the primary admin's command center.
type Handler struct {
	Panel *shared.Panel
	Log   *zap.Logger
}

func NewHandler(panel *shared.Panel, logger *zap.Logger) *Handler {
	return &Handler{Panel: panel, Log: logger}
}

func parseTab(s string) string {
	switch s {
	case TabAccounts, TabReports:
		return s
	}
	return TabOverview
}

// ServeDashboard renders the selected tab from the held snapshot, loading
// it first if needed.
// GET /admin
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	notice, ok := h.Panel.Load(w, r, s)
	if !ok {
		return
	}

	pred, form, err := shared.PredicateFromQuery(r, h.Panel.Loc)
	if err != nil && notice == "" {
		notice = projection.Notice(err)
	}

	data := buildView(s.Engine.Snapshot(), s.Actor.ID, parseTab(query.Get(r, "tab")), pred, form, h.Panel.Loc)
	data.BaseVM = viewdata.NewBaseVM(r, data.Profile.Title, "/admin")
	data.LoadNotice = notice
	data.Table.CSRFToken = data.CSRFToken
	templates.Render(w, r, "admin_dashboard", data)
}

// ServeAuthorReports lists one account's reports as the service returns
// them for that author, joined against the held accounts.
// GET /admin/accounts/{id}/reports
func (h *Handler) ServeAuthorReports(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id := urlID(r)
	back := "/admin?tab=" + TabAccounts

	ctx, cancel := readContext(r)
	defer cancel()

	if err := s.Engine.Ensure(ctx); err != nil {
		h.Panel.Fail(w, r, s, err, back)
		return
	}
	view, err := s.Engine.NarrowToAuthor(ctx, id)
	if err != nil {
		h.Panel.Fail(w, r, s, err, back)
		return
	}

	account, _ := s.Engine.Snapshot().Account(id)
	data := authorReportsData{
		BaseVM:  viewdata.NewBaseVM(r, "Reports by author", back),
		Account: account,
		Found:   account.ID != "",
		ID:      id,
		Rows:    shared.Rows(view.Rows, h.Panel.Loc),
	}
	templates.Render(w, r, "admin_author_reports", data)
}

// HandleRefresh discards the held snapshot and reloads it.
// POST /admin/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	back := tabURL(r.FormValue("tab"))
	ctx, cancel := readContext(r)
	defer cancel()
	if err := s.Engine.Reload(ctx); err != nil {
		h.Panel.Fail(w, r, s, err, back)
		return
	}
	h.Panel.Done(w, r, "Data refreshed.", back)
}

type authorReportsData struct {
	viewdata.BaseVM
	Account models.Account
	Found   bool
	ID      string
	Rows    []shared.ReportRow
}
