package main

import (
	"fmt"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/spf13/cobra"
)

func newAccountsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List and administer accounts",
	}
	cmd.AddCommand(newAccountsListCmd(opts), newAccountsRoleCmd(opts), newAccountsDeleteCmd(opts))
	return cmd
}

func newAccountsListCmd(opts *options) *cobra.Command {
	var role, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their report counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			pred := projection.Predicate{SearchText: search}
			if role != "" {
				r, ok := models.ParseRole(role)
				if !ok {
					return fmt.Errorf("unknown role %q: want ANDREI, DAEMON or NETWORK_ADMIN", role)
				}
				pred.RoleFilter = r
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			eng, _, err := opts.engine(ctx)
			if err != nil {
				return err
			}
			return printAccounts(cmd.OutOrStdout(), eng.Accounts(pred), eng.Stats())
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "only accounts with this role")
	cmd.Flags().StringVarP(&search, "search", "q", "", "substring of the email")
	return cmd
}

func newAccountsRoleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "role ID ROLE",
		Short: "Set an account's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := models.ParseRole(args[1])
			ctx, cancel := opts.context(cmd)
			defer cancel()
			eng, _, err := opts.engine(ctx)
			if err != nil {
				return err
			}
			if err := eng.ReassignRole(ctx, args[0], role); err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %s is now %s\n", args[0], role)
			return nil
		},
	}
}

func newAccountsDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			eng, actor, err := opts.engine(ctx)
			if err != nil {
				return err
			}
			if args[0] == actor.ID {
				return fmt.Errorf("refusing to delete the acting account %s", actor.ID)
			}
			if err := eng.DeleteAccount(ctx, args[0]); err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %s deleted\n", args[0])
			return nil
		},
	}
}
