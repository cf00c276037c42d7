// internal/app/features/shared/filters.go
package shared

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/htmlsanitize"
	"github.com/chaosempire/chaospanel/internal/app/system/normalize"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// Filter query parameter names, shared by every dashboard and the export.
const (
	ParamSearch    = "q"
	ParamAnonymous = "anon"
	ParamFrom      = "from"
	ParamTo        = "to"
	ParamAuthor    = "author"
	ParamRole      = "role"
)

// FilterForm echoes the submitted filter values back into the form.
type FilterForm struct {
	Search    string
	Anonymous string
	From      string
	To        string
	Author    string
	Role      string
}

// PredicateFromQuery reads the filter parameters. Invalid dates are left
// out of the predicate and reported in the returned error; every other value
// is taken as given, with "all" and unknown modes meaning no constraint.
func PredicateFromQuery(r *http.Request, loc *time.Location) (projection.Predicate, FilterForm, error) {
	form := FilterForm{
		Search:    query.Get(r, ParamSearch),
		Anonymous: query.Get(r, ParamAnonymous),
		From:      query.Get(r, ParamFrom),
		To:        query.Get(r, ParamTo),
		Author:    query.Get(r, ParamAuthor),
		Role:      query.Get(r, ParamRole),
	}

	p := projection.Predicate{
		SearchText:       normalize.QueryParam(form.Search),
		AnonymousMode:    models.ParseAnonymousMode(normalize.QueryParam(form.Anonymous)),
		SelectedAuthorID: normalize.ID(form.Author),
	}
	if role := normalize.ID(form.Role); role != "" {
		p.RoleFilter = models.Role(normalize.Role(role))
	}

	var errs []error
	if from, err := projection.ParseDate(form.From, loc); err != nil {
		errs = append(errs, err)
	} else {
		p.DateFrom = from
	}
	if to, err := projection.ParseDate(form.To, loc); err != nil {
		errs = append(errs, err)
	} else {
		p.DateTo = to
	}
	return p, form, errors.Join(errs...)
}

// Values encodes p as query parameters, omitting unset fields.
func Values(p projection.Predicate) url.Values {
	v := url.Values{}
	if p.SearchText != "" {
		v.Set(ParamSearch, p.SearchText)
	}
	if p.AnonymousMode != "" && p.AnonymousMode != models.AnonymousAll {
		v.Set(ParamAnonymous, string(p.AnonymousMode))
	}
	if s := p.DateFromValue(); s != "" {
		v.Set(ParamFrom, s)
	}
	if s := p.DateToValue(); s != "" {
		v.Set(ParamTo, s)
	}
	if p.SelectedAuthorID != "" {
		v.Set(ParamAuthor, p.SelectedAuthorID)
	}
	if p.RoleFilter != "" {
		v.Set(ParamRole, string(p.RoleFilter))
	}
	return v
}

// ReportRow is a report ready for a template.
type ReportRow struct {
	ID        string
	Message   template.HTML
	Created   string
	Anonymous bool
	Author    string
	AuthorID  string
	Orphaned  bool
}

// DisplayTime is how report timestamps are shown.
const DisplayTime = "2006-01-02 15:04"

// Rows converts view rows for display, rendering times in loc.
func Rows(rows []projection.Row, loc *time.Location) []ReportRow {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]ReportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, ReportRow{
			ID:        row.Report.ID,
			Message:   htmlsanitize.MessageHTML(row.Report.Message),
			Created:   row.Report.CreatedAt.In(loc).Format(DisplayTime),
			Anonymous: row.Report.Anonymous,
			Author:    row.AuthorLabel(),
			AuthorID:  row.Report.AuthorID,
			Orphaned:  row.Orphaned(),
		})
	}
	return out
}

// RoleOption is one entry of a role select.
type RoleOption struct {
	Value    string
	Label    string
	Selected bool
}

// RoleOptions lists every role, marking current as selected.
func RoleOptions(current models.Role) []RoleOption {
	roles := models.Roles()
	out := make([]RoleOption, 0, len(roles))
	for _, role := range roles {
		out = append(out, RoleOption{Value: string(role), Label: role.Label(), Selected: role == current})
	}
	return out
}

// FilterBar feeds the report_filters partial.
type FilterBar struct {
	Action  string
	Tab     string
	Form    FilterForm
	Authors []models.Account
	Export  string
}

// ReportTable feeds the report_table partial. Action is the path edit and
// delete forms post under.
type ReportTable struct {
	Rows      []ReportRow
	Editable  bool
	Action    string
	CSRFToken string
}
