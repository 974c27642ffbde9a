package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vodnote/internal/bootstrap"
	"vodnote/internal/store"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage saved sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(ctx, cmd)
		},
	}

	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved sessions, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(ctx, cmd)
		},
	})
	sessionsCmd.AddCommand(newSessionsShowCommand(ctx))
	sessionsCmd.AddCommand(newSessionsDeleteCommand(ctx))
	sessionsCmd.AddCommand(newSessionsClearCommand(ctx))

	return sessionsCmd
}

func runSessionsList(ctx *commandContext, cmd *cobra.Command) error {
	st, err := ctx.lazyStore().Get()
	if err != nil {
		return err
	}
	sessions, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No saved sessions")
		return nil
	}

	currentID, _ := bootstrap.LoadPointer(ctx.configValue().PointerPath())
	rows := make([][]string, 0, len(sessions))
	for _, session := range sessions {
		marker := ""
		if session.ID == currentID {
			marker = "*"
		}
		rows = append(rows, []string{
			marker,
			shortID(session.ID),
			session.Video.Name,
			session.Video.URL,
			fmt.Sprintf("%d", len(session.Notes)),
			session.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"", "ID", "Name", "Video", "Notes", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))
	return nil
}

func newSessionsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show one session's notes (defaults to the current session)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			session, err := ctx.resolveSession(cmd.Context(), arg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s\n", shortID(session.ID))
			fmt.Fprintf(out, "Video:   %s\n", session.Video.URL)
			fmt.Fprintf(out, "Name:    %s\n", session.Video.Name)
			fmt.Fprintf(out, "Updated: %s\n", session.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			printNotes(out, session.Notes)
			return nil
		},
	}
}

func newSessionsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.resolveSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			st, err := ctx.lazyStore().Get()
			if err != nil {
				return err
			}
			if err := st.DeleteByVideoID(cmd.Context(), session.Video.ID); err != nil {
				if errors.Is(err, store.ErrNotAssociated) {
					return fmt.Errorf("session %s has no durable record", shortID(session.ID))
				}
				return err
			}

			cfg := ctx.configValue()
			if current, ok := bootstrap.LoadPointer(cfg.PointerPath()); ok && current == session.ID {
				_ = bootstrap.ClearPointer(cfg.PointerPath())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", shortID(session.ID))
			return nil
		},
	}
}

func newSessionsClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete all sessions without --yes")
			}
			st, err := ctx.lazyStore().Get()
			if err != nil {
				return err
			}
			removed, err := st.Clear(cmd.Context())
			if err != nil {
				return err
			}
			_ = bootstrap.ClearPointer(ctx.configValue().PointerPath())
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d sessions\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting every saved session")
	return cmd
}
