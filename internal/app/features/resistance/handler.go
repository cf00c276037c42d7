// internal/app/features/resistance/handler.go
package resistance

import (
	"context"
	"net/http"
	"strings"

	"github.com/chaosempire/chaospanel/internal/app/features/shared"
	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/viewdata"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const home = "/resistance"

// ReportType tags a subordinate's report.
type ReportType string

const (
	TypeDaemon     ReportType = "DAEMON"
	TypeAnomaly    ReportType = "ANOMALY"
	TypeResistance ReportType = "RESISTANCE"
)

// ReportTypes lists the selectable types, default first.
func ReportTypes() []ReportType {
	return []ReportType{TypeDaemon, TypeAnomaly, TypeResistance}
}

// ParseReportType returns the type named by s, falling back to DAEMON.
func ParseReportType(s string) ReportType {
	t := ReportType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range ReportTypes() {
		if t == known {
			return t
		}
	}
	return TypeDaemon
}

// Tag prefixes msg with the type. Blank messages stay blank so the engine
// rejects them.
func (t ReportType) Tag(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ""
	}
	return "[" + string(t) + "] " + msg
}

var tips = []string{
	"Vary your routes. Patterns are how the grid finds you.",
	"Keep reports short and factual. Times and places beat opinions.",
	"Report anomalies even when you are unsure. Several small signals make one clear picture.",
	"Never reuse a password that the grid has seen before.",
	"If a relay goes dark, assume it is being watched.",
}

// Handler serves the subordinate terminal.
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
	Types      []ReportType
	Tips       []string
	Table      shared.ReportTable
}

// ServeDashboard reloads and lists the subordinate's own reports.
// GET /resistance
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	// Reports filed elsewhere under this account should show up at once.
	notice, ok := h.Panel.Refresh(w, r, s)
	if !ok {
		return
	}

	profile, _ := projection.ProfileFor(models.RoleSubordinate)
	data := pageData{
		BaseVM:     viewdata.NewBaseVM(r, profile.Title, home),
		Profile:    profile,
		LoadNotice: notice,
		Types:      ReportTypes(),
		Tips:       tips,
	}
	if s.Engine.Loaded() {
		view := s.Engine.View(profile.DefaultPredicate(s.Actor.ID))
		data.Table = shared.ReportTable{Rows: shared.Rows(view.Rows, h.Panel.Loc)}
	}
	templates.Render(w, r, "resistance_dashboard", data)
}

// HandleSubmit files a typed report. It is anonymous when asked for or when
// the session carries no account id.
// POST /resistance/reports
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	in := projection.ReportInput{
		Message:   ParseReportType(r.FormValue("type")).Tag(r.FormValue("message")),
		Anonymous: r.FormValue("anonymous") != "" || s.Actor.ID == "",
		AuthorID:  s.Actor.ID,
	}
	h.Panel.Act(w, r, s, home, "Report transmitted.", func(ctx context.Context) error {
		return s.Engine.CreateReport(ctx, in)
	})
}
