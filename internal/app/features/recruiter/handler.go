// internal/app/features/recruiter/handler.go
package recruiter

import (
	"context"
	"net/http"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/features/shared"
	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/timeouts"
	"github.com/chaosempire/chaospanel/internal/app/system/viewdata"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const home = "/recruiter"

// Handler serves the recruitment console.
type Handler struct {
	Panel *shared.Panel
	Log   *zap.Logger
}

func NewHandler(panel *shared.Panel, logger *zap.Logger) *Handler {
	return &Handler{Panel: panel, Log: logger}
}

type pageData struct {
	viewdata.BaseVM
	Profile    projection.Profile
	LoadNotice string

	MyReports    int
	Subordinates []models.Account
	Recruiters   []models.Account

	Filters shared.FilterBar
	Table   shared.ReportTable
	Matched int
}

// ServeDashboard renders the console.
// GET /recruiter
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

	data := buildView(s.Engine.Snapshot(), s.Actor.ID, pred, form, h.Panel.Loc)
	data.BaseVM = viewdata.NewBaseVM(r, data.Profile.Title, home)
	data.LoadNotice = notice
	templates.Render(w, r, "recruiter_dashboard", data)
}

// buildView lists the acting recruiter's own reports under the query
// filters, the subordinates, and the other recruiters actions can go to.
func buildView(snap *projection.Snapshot, actingID string, pred projection.Predicate, form shared.FilterForm, loc *time.Location) pageData {
	profile, _ := projection.ProfileFor(models.RoleRecruiter)
	data := pageData{Profile: profile}

	var reports []models.Report
	var accounts []models.Account
	if snap != nil {
		reports, accounts = snap.Reports(), snap.Accounts()
	}

	data.MyReports = projection.Compute(reports, accounts, actingID).MyReports
	data.Subordinates = projection.FilterAccounts(accounts, projection.Predicate{RoleFilter: models.RoleSubordinate})
	data.Recruiters = assignable(accounts, actingID)

	// The author is always the acting recruiter here.
	pred.SelectedAuthorID, pred.RoleFilter = "", ""
	view := projection.Project(reports, accounts, profile.DefaultPredicate(actingID).Merge(pred))
	data.Matched = view.Len()
	data.Filters = shared.FilterBar{
		Action: home,
		Form:   form,
		Export: "/reports/export.xlsx?" + shared.Values(pred).Encode(),
	}
	data.Table = shared.ReportTable{Rows: shared.Rows(view.Rows, loc)}
	return data
}

// assignable returns the recruiters other than actingID.
func assignable(accounts []models.Account, actingID string) []models.Account {
	var out []models.Account
	for _, a := range projection.FilterAccounts(accounts, projection.Predicate{RoleFilter: models.RoleRecruiter}) {
		if a.ID != actingID {
			out = append(out, a)
		}
	}
	return out
}

// HandleRegisterSubordinate enrols a new subordinate.
// POST /recruiter/subordinates
func (h *Handler) HandleRegisterSubordinate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	email, password := r.FormValue("email"), r.FormValue("password")
	h.Panel.Act(w, r, s, home, "Subordinate registered.", func(ctx context.Context) error {
		return s.Engine.RegisterSubordinate(ctx, email, password)
	})
}

// HandleCreateReport files a report as the acting recruiter, or with no
// author when anonymous.
// POST /recruiter/reports
func (h *Handler) HandleCreateReport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	in := projection.ReportInput{
		Message:   r.FormValue("message"),
		Anonymous: r.FormValue("anonymous") != "",
		AuthorID:  s.Actor.ID,
	}
	h.Panel.Act(w, r, s, home, "Report submitted.", func(ctx context.Context) error {
		return s.Engine.CreateReport(ctx, in)
	})
}

// HandleAssignAction sends an action to another recruiter and shows the
// service's answer.
// POST /recruiter/assign/{id}
func (h *Handler) HandleAssignAction(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id := chi.URLParam(r, "id")
	action := r.FormValue("action")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Mutation())
	defer cancel()

	err := s.Engine.Ensure(ctx)
	if err == nil && !isAssignable(s.Engine.Snapshot(), id, s.Actor.ID) {
		err = &projection.ValidationError{Field: "account", Message: "Actions can only be assigned to other recruiters."}
	}
	var reply string
	if err == nil {
		reply, err = s.Engine.AssignAction(ctx, id, action)
	}
	if err != nil {
		h.Panel.Fail(w, r, s, err, home)
		return
	}
	if reply == "" {
		reply = "Action assigned."
	}
	h.Panel.Done(w, r, reply, home)
}

func isAssignable(snap *projection.Snapshot, id, actingID string) bool {
	if snap == nil || id == actingID {
		return false
	}
	a, ok := snap.Account(id)
	return ok && a.Role == models.RoleRecruiter
}
