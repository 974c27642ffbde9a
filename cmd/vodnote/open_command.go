package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"vodnote/internal/note"
)

func newOpenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "open <url-or-share-link>",
		Short: "Open a video or share link and make it the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, closeController := ctx.controller()
			defer closeController()
			boot, rec := ctx.newBootstrap(controller)
			defer rec.Close()
			defer boot.Close()

			result, err := boot.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case result.Shared:
				fmt.Fprintf(out, "Opened shared session for %s (read-only)\n", result.Video.URL)
				printNotes(out, result.Notes)
				fmt.Fprintln(out, "Run `vodnote claim` with this link to make it yours.")
				return nil
			case result.Restored:
				fmt.Fprintf(out, "Resumed session %s for %s\n", shortID(result.Session.ID), result.Video.URL)
				printNotes(out, result.Notes)
				boot.Remember(result.Session)
				return nil
			default:
				session, err := boot.Claim(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Started session %s for %s\n", shortID(session.ID), session.Video.URL)
				printNotes(out, session.Notes)
				return nil
			}
		},
	}
}

func printNotes(out io.Writer, notes []note.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(out, "No notes yet.")
		return
	}
	rows := make([][]string, 0, len(notes))
	for i, n := range notes {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			note.FormatTimestamp(n.Timestamp),
			n.Content,
		})
	}
	fmt.Fprintln(out, renderTable(out, []string{"#", "Time", "Note"}, rows, []columnAlignment{alignRight, alignRight, alignLeft}))
}
