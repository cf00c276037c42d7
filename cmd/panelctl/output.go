package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/domain/models"
)

const maxMessageWidth = 60

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func printReports(w io.Writer, view projection.View, loc *time.Location) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCREATED\tAUTHOR\tMESSAGE")
	for _, row := range view.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			row.Report.ID,
			row.Report.CreatedAt.In(loc).Format("2006-01-02 15:04"),
			row.AuthorLabel(),
			truncate(row.Report.Message, maxMessageWidth))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d reports\n", view.Len(), view.Total)
	return err
}

func printAccounts(w io.Writer, accounts []models.Account, stats projection.Statistics) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tEMAIL\tROLE\tREPORTS")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", a.ID, a.Email, a.Role, stats.ReportCount(a.ID))
	}
	return tw.Flush()
}

func printStats(w io.Writer, s projection.Statistics) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "accounts\t%d\n", s.TotalAccounts)
	fmt.Fprintf(tw, "reports\t%d\n", s.TotalReports)
	fmt.Fprintf(tw, "  anonymous\t%d\n", s.AnonymousReports)
	fmt.Fprintf(tw, "  public\t%d\n", s.PublicReports)
	fmt.Fprintf(tw, "  mine\t%d\n", s.MyReports)
	for _, rs := range s.Roles {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", rs.Role, rs.Count, rs.Percent)
	}
	return tw.Flush()
}
