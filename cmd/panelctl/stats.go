package main

import "github.com/spf13/cobra"

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals and the role distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			eng, _, err := opts.engine(ctx)
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), eng.Stats())
		},
	}
}
