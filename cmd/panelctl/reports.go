package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/spf13/cobra"
)

// filterFlags mirror the web filter bar.
type filterFlags struct {
	search    string
	anonymous string
	from      string
	to        string
	author    string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.search, "search", "q", "", "substring of the message (case-insensitive)")
	fl.StringVar(&f.anonymous, "anon", "all", "all, anonymous or public")
	fl.StringVar(&f.from, "from", "", "first day, YYYY-MM-DD")
	fl.StringVar(&f.to, "to", "", "last day, YYYY-MM-DD")
	fl.StringVar(&f.author, "author", "", "author account id")
}

func (f *filterFlags) predicate(opts *options) (projection.Predicate, error) {
	p := projection.Predicate{
		SearchText:       strings.TrimSpace(f.search),
		AnonymousMode:    models.ParseAnonymousMode(f.anonymous),
		SelectedAuthorID: strings.TrimSpace(f.author),
	}
	var err error
	if p.DateFrom, err = projection.ParseDate(f.from, opts.loc); err != nil {
		return p, err
	}
	if p.DateTo, err = projection.ParseDate(f.to, opts.loc); err != nil {
		return p, err
	}
	return p, nil
}

func newReportsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List and change reports",
	}
	cmd.AddCommand(newReportsListCmd(opts), newReportsCreateCmd(opts), newReportsDeleteCmd(opts))
	return cmd
}

func newReportsListCmd(opts *options) *cobra.Command {
	var f filterFlags
	var mine bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports matching the filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := f.predicate(opts)
			if err != nil {
				return explain(err)
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			eng, actor, err := opts.engine(ctx)
			if err != nil {
				return err
			}
			if mine {
				if actor.ID == "" {
					return errors.New("--mine needs an account id: the token has none, pass --as")
				}
				pred.SelectedAuthorID = actor.ID
			}
			return printReports(cmd.OutOrStdout(), eng.View(pred), opts.loc)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&mine, "mine", false, "only reports by the acting account")
	return cmd
}

func newReportsCreateCmd(opts *options) *cobra.Command {
	var anonymous bool
	var author string
	cmd := &cobra.Command{
		Use:   "create MESSAGE",
		Short: "File a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			eng, actor, err := opts.engine(ctx)
			if err != nil {
				return err
			}
			if author == "" {
				author = actor.ID
			}
			in := projection.ReportInput{Message: args[0], Anonymous: anonymous, AuthorID: author}
			if err := eng.CreateReport(ctx, in); err != nil {
				return explain(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "report created")
			return nil
		},
	}
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "file without an author")
	cmd.Flags().StringVar(&author, "author", "", "author account id (default: the acting account)")
	return cmd
}

func newReportsDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			eng, _, err := opts.engine(ctx)
			if err != nil {
				return err
			}
			if err := eng.DeleteReport(ctx, args[0]); err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "report %s deleted\n", args[0])
			return nil
		},
	}
}
