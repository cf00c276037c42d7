// internal/app/projection/view.go
package projection

import "github.com/chaosempire/chaospanel/internal/domain/models"

// Author labels shown for reports without a resolvable author.
const (
	LabelAnonymous     = "Anonymous"
	LabelUnknownAuthor = "Unknown author"
)

// Row is one report with its joined author, nil when absent.
type Row struct {
	Report models.Report
	Author *models.Account
}

// Orphaned reports whether the row names an author that no longer exists.
func (r Row) Orphaned() bool {
	return r.Author == nil && !r.Report.Anonymous && r.Report.HasAuthor()
}

// AuthorLabel is the display name for the row's author.
func (r Row) AuthorLabel() string {
	switch {
	case r.Report.Anonymous:
		return LabelAnonymous
	case r.Author != nil:
		return r.Author.Email
	default:
		return LabelUnknownAuthor
	}
}

// View is the ordered result of a projection. Total is the size of the
// unfiltered report collection it was drawn from.
type View struct {
	Rows      []Row
	Total     int
	Predicate Predicate
}

// Len returns the number of matching rows.
func (v View) Len() int { return len(v.Rows) }

// Recent returns the first n rows in arrival order.
func (v View) Recent(n int) []Row {
	if n < 0 {
		n = 0
	}
	if n > len(v.Rows) {
		n = len(v.Rows)
	}
	return v.Rows[:n:n]
}

// Project joins reports to accounts and keeps the rows matching p, in the
// order the reports arrived. Neither input is modified.
func Project(reports []models.Report, accounts []models.Account, p Predicate) View {
	return project(reports, NewIndex(accounts), p)
}

func project(reports []models.Report, ix Index, p Predicate) View {
	rows := make([]Row, 0, len(reports))
	for _, r := range reports {
		author := ix.Author(r)
		if Matches(r, author, p) {
			rows = append(rows, Row{Report: r, Author: author})
		}
	}
	return View{Rows: rows, Total: len(reports), Predicate: p}
}

// ProjectAll is Project over the conjunction of preds: a row is kept only if
// it matches every predicate.
func ProjectAll(reports []models.Report, accounts []models.Account, preds ...Predicate) View {
	ix := NewIndex(accounts)
	rows := make([]Row, 0, len(reports))
	for _, r := range reports {
		author := ix.Author(r)
		if matchesAll(r, author, preds) {
			rows = append(rows, Row{Report: r, Author: author})
		}
	}
	v := View{Rows: rows, Total: len(reports)}
	if len(preds) == 1 {
		v.Predicate = preds[0]
	}
	return v
}

func matchesAll(r models.Report, author *models.Account, preds []Predicate) bool {
	for _, p := range preds {
		if !Matches(r, author, p) {
			return false
		}
	}
	return true
}
