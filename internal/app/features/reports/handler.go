// internal/app/features/reports/handler.go
package reports

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/chaosempire/chaospanel/internal/app/features/errors"
	"github.com/chaosempire/chaospanel/internal/app/features/shared"
	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/authz"
	"github.com/chaosempire/chaospanel/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler serves report downloads.
type Handler struct {
	Panel  *shared.Panel
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(panel *shared.Panel, logger *zap.Logger) *Handler {
	return &Handler{Panel: panel, Log: logger, ErrLog: uierrors.NewErrorLogger(logger)}
}

// ExportPredicate layers the query filters over the dashboard's default.
// Dashboards limited to their own reports keep that limit.
func ExportPredicate(profile projection.Profile, actingID string, q projection.Predicate) projection.Predicate {
	q.RoleFilter = ""
	if profile.OwnReports {
		q.SelectedAuthorID = ""
	}
	return profile.DefaultPredicate(actingID).Merge(q)
}

// ServeExport streams the user's current report view as a spreadsheet.
// GET /reports/export.xlsx
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Panel.Session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	profile, ok := authz.Profile(r)
	if !ok {
		h.ErrLog.LogForbidden(w, r, "export requested without a dashboard role",
			fmt.Errorf("role %q", s.Actor.Tier), "Your role has no report view to export.", "/")
		return
	}

	q, _, err := shared.PredicateFromQuery(r, h.Panel.Loc)
	if err != nil {
		h.Panel.Fail(w, r, s, err, profile.Path)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Export())
	defer cancel()
	if err := s.Engine.Ensure(ctx); err != nil {
		h.Panel.Fail(w, r, s, err, profile.Path)
		return
	}

	view := s.Engine.View(ExportPredicate(profile, s.Actor.ID, q))
	buf, err := Workbook(view.Rows, h.Panel.Loc)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "building report workbook failed", err,
			"The export could not be generated.", profile.Path)
		return
	}

	filename := fmt.Sprintf("reports-%s.xlsx", time.Now().In(h.Panel.Loc).Format("20060102-1504"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.Log.Warn("writing report workbook failed", zap.Error(err))
		return
	}
	h.Log.Info("reports exported",
		zap.String("account_id", s.Actor.ID),
		zap.Int("rows", view.Len()))
}
