package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show session store diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.lazyStore().Get()
			if err != nil {
				return err
			}
			health, err := st.CheckHealth(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Database path", health.DBPath},
				{"Database exists", yesNo(health.DatabaseExists)},
				{"Database readable", yesNo(health.DatabaseReadable)},
				{"Sessions table", yesNo(health.TableExists)},
				{"Saved sessions", fmt.Sprintf("%d", health.TotalSessions)},
				{"Integrity check", yesNo(health.IntegrityCheck)},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Check", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
